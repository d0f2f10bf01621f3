package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"showsync/internal/bootstrap"
	"showsync/internal/config"
	"showsync/internal/engine"
	"showsync/internal/logging"
	"showsync/internal/match"
	"showsync/internal/playlist"
	"showsync/internal/provider/tmdb"
	"showsync/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the cache store for one command invocation.
func (c *commandContext) withStore(fn func(cfg *config.Config, store *storage.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// newLogger builds the run logger, teeing console output into a timestamped
// file under the log directory.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	runStamp := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("showsync-%s.log", runStamp))
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// buildEngine wires the full sync stack from configuration.
func buildEngine(cfg *config.Config, store *storage.Store, logger *slog.Logger) (*engine.Engine, error) {
	provider, err := tmdb.New(cfg.Provider.APIKey, cfg.Provider.BaseURL, cfg.Provider.Language)
	if err != nil {
		return nil, fmt.Errorf("init provider client: %w", err)
	}
	editor, err := playlist.New(cfg.Playlist, logger)
	if err != nil {
		return nil, fmt.Errorf("init playlist client: %w", err)
	}
	resolver := match.NewResolver(cfg, store, provider, match.NewAudit(cfg.Paths.AuditLog), logger)
	source := bootstrap.NewSource(cfg, editor, logger)
	return engine.New(cfg, store, resolver, provider, editor, source, logger), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
