package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validatePlaylist(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProvider() error {
	if c.Provider.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/showsync/config.toml"
		}
		return fmt.Errorf("provider.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'showsync config init')", defaultPath)
	}
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return errors.New("provider.base_url must be set")
	}
	return nil
}

func (c *Config) validatePlaylist() error {
	if strings.TrimSpace(c.Playlist.BaseURL) == "" {
		return errors.New("playlist.base_url must be set")
	}
	if c.Playlist.Token == "" {
		return errors.New("playlist.token is required. Set PLAYLIST_TOKEN env var or add it to the config file")
	}
	if err := ensurePositiveMap(map[string]int{
		"playlist.request_timeout": c.Playlist.RequestTimeout,
		"playlist.retry_attempts":  c.Playlist.RetryAttempts,
		"playlist.retry_wait_ms":   c.Playlist.RetryWaitMs,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.BatchSize <= 0 {
		return errors.New("sync.batch_size must be positive")
	}
	if c.Sync.MixedScriptPercent > 100 {
		return errors.New("sync.mixed_script_percent must be between 0 and 100")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
