package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	// Best-effort .env load so credentials can live outside the TOML file.
	_ = godotenv.Load()

	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizePlaylist()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDB) == "" {
		c.Paths.CacheDB = filepath.Join(c.Paths.DataDir, "showsync.db")
	}
	if c.Paths.CacheDB, err = expandPath(c.Paths.CacheDB); err != nil {
		return fmt.Errorf("paths.cache_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.AuditLog) == "" {
		c.Paths.AuditLog = filepath.Join(c.Paths.DataDir, "not_found_audit.jsonl")
	}
	if c.Paths.AuditLog, err = expandPath(c.Paths.AuditLog); err != nil {
		return fmt.Errorf("paths.audit_log: %w", err)
	}
	if strings.TrimSpace(c.Paths.RunLockFile) == "" {
		c.Paths.RunLockFile = filepath.Join(c.Paths.DataDir, "showsync.lock")
	}
	if c.Paths.RunLockFile, err = expandPath(c.Paths.RunLockFile); err != nil {
		return fmt.Errorf("paths.run_lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeProvider() {
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	if c.Provider.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.Provider.APIKey = strings.TrimSpace(value)
		}
	}
	c.Provider.BaseURL = strings.TrimSpace(c.Provider.BaseURL)
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	c.Provider.Language = strings.TrimSpace(c.Provider.Language)
	if c.Provider.Language == "" {
		c.Provider.Language = defaultProviderLanguage
	}
}

func (c *Config) normalizePlaylist() {
	c.Playlist.BaseURL = strings.TrimSpace(c.Playlist.BaseURL)
	if c.Playlist.BaseURL == "" {
		c.Playlist.BaseURL = defaultPlaylistBaseURL
	}
	c.Playlist.Token = strings.TrimSpace(c.Playlist.Token)
	if c.Playlist.Token == "" {
		if value, ok := os.LookupEnv("PLAYLIST_TOKEN"); ok {
			c.Playlist.Token = strings.TrimSpace(value)
		}
	}
	c.Playlist.Playlist = strings.TrimSpace(c.Playlist.Playlist)
	if c.Playlist.Playlist == "" {
		if value, ok := os.LookupEnv("PLAYLIST_ID"); ok {
			c.Playlist.Playlist = strings.TrimSpace(value)
		}
	}
	if c.Playlist.RequestTimeout <= 0 {
		c.Playlist.RequestTimeout = defaultPlaylistRequestTimeout
	}
	if c.Playlist.RetryAttempts <= 0 {
		c.Playlist.RetryAttempts = defaultPlaylistRetryAttempts
	}
	if c.Playlist.RetryWaitMs <= 0 {
		c.Playlist.RetryWaitMs = defaultPlaylistRetryWaitMs
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = defaultBatchSize
	}
	if c.Sync.NotFoundTTLHours < 0 {
		c.Sync.NotFoundTTLHours = 0
	}
	if c.Sync.MixedScriptPercent < 0 {
		c.Sync.MixedScriptPercent = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
