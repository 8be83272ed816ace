package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ballotproof/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config suitable for scratch election directories:
// defaults with a small worker pool so estimator tests stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Engine.Workers = 2
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers sets the estimator worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Workers = n
	}
}

// WithTrialChunk sets the estimator chunk size on the test config.
func WithTrialChunk(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.TrialChunk = n
	}
}

// WithoutJournal disables run journaling on the test config.
func WithoutJournal() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Journal.Enabled = false
	}
}

// WriteConfig marshals cfg to a TOML file under a fresh temp directory and
// returns its path, ready for a --config flag.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
