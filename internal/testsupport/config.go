// Package testsupport provides shared fixtures for package tests: temp-dir
// configs, store helpers, and bootstrap file writers.
package testsupport

import (
	"path/filepath"
	"testing"

	"showsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Provider.APIKey = "test"
	cfgVal.Playlist.Token = "test-token"
	cfgVal.Playlist.Playlist = "test-playlist"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDB = filepath.Join(base, "data", "showsync.db")
	cfgVal.Paths.AuditLog = filepath.Join(base, "data", "not_found_audit.jsonl")
	cfgVal.Paths.RunLockFile = filepath.Join(base, "data", "showsync.lock")

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBatchSize overrides the sync batch size on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.BatchSize = size
	}
}

// WithFallbackFirstResult enables the first-result match policy.
func WithFallbackFirstResult() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.FallbackFirstResult = true
	}
}

// WithNotFoundTTLHours overrides the not-found cache expiry.
func WithNotFoundTTLHours(hours int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.NotFoundTTLHours = hours
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
