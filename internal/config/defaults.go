package config

const (
	defaultDataDir                = "~/.local/share/showsync"
	defaultLogDir                 = "~/.local/share/showsync/logs"
	defaultProviderBaseURL        = "https://api.themoviedb.org/3"
	defaultProviderLanguage       = "en-US"
	defaultPlaylistBaseURL        = "https://editor.iptveditor.com/api"
	defaultPlaylistRequestTimeout = 30
	defaultPlaylistRetryAttempts  = 3
	defaultPlaylistRetryWaitMs    = 500
	defaultBatchSize              = 10
	defaultNotFoundTTLHours       = 168
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Provider: Provider{
			BaseURL:  defaultProviderBaseURL,
			Language: defaultProviderLanguage,
		},
		Playlist: Playlist{
			BaseURL:        defaultPlaylistBaseURL,
			RequestTimeout: defaultPlaylistRequestTimeout,
			RetryAttempts:  defaultPlaylistRetryAttempts,
			RetryWaitMs:    defaultPlaylistRetryWaitMs,
		},
		Sync: Sync{
			BatchSize:        defaultBatchSize,
			NotFoundTTLHours: defaultNotFoundTTLHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
