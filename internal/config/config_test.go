package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ballotproof/internal/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Engine.Workers != 0 {
		t.Fatalf("expected workers 0 (auto), got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.TrialChunk != 2048 {
		t.Fatalf("unexpected trial chunk: %d", cfg.Engine.TrialChunk)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Filename != "journal.db" {
		t.Fatalf("unexpected journal defaults: %+v", cfg.Journal)
	}
	if cfg.IO.RetryAttempts != 3 || cfg.IO.RetryBackoffMS != 100 {
		t.Fatalf("unexpected io defaults: %+v", cfg.IO)
	}
	if cfg.RetryBackoff() != 100*time.Millisecond {
		t.Fatalf("unexpected retry backoff: %v", cfg.RetryBackoff())
	}
	if cfg.LockTimeout() != 10*time.Second {
		t.Fatalf("unexpected lock timeout: %v", cfg.LockTimeout())
	}
}

func TestDefaultConfigPathHonorsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	path, err := config.DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	want := filepath.Join(base, "ballotproof", "config.toml")
	if path != want {
		t.Fatalf("default path = %q, want %q", path, want)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ballotproof.toml")

	type payload struct {
		Log struct {
			Level  string `toml:"level"`
			Format string `toml:"format"`
		} `toml:"log"`
		Engine struct {
			Workers    int `toml:"workers"`
			TrialChunk int `toml:"trial_chunk"`
		} `toml:"engine"`
		Journal struct {
			Enabled  bool   `toml:"enabled"`
			Filename string `toml:"filename"`
		} `toml:"journal"`
	}
	custom := payload{}
	custom.Log.Level = "DEBUG"
	custom.Log.Format = "json"
	custom.Engine.Workers = 4
	custom.Engine.TrialChunk = 512
	custom.Journal.Enabled = false
	custom.Journal.Filename = "audit-journal.db"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected level lowered to debug, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Log.Format)
	}
	if cfg.Engine.Workers != 4 || cfg.Engine.TrialChunk != 512 {
		t.Fatalf("unexpected engine settings: %+v", cfg.Engine)
	}
	if cfg.JournalPath(tempDir) != "" {
		t.Fatalf("expected empty journal path when disabled, got %q", cfg.JournalPath(tempDir))
	}
}

func TestJournalPathJoinsElectionDir(t *testing.T) {
	cfg := config.Default()
	got := cfg.JournalPath("/elections/2026-primary")
	want := filepath.Join("/elections/2026-primary", "journal.db")
	if got != want {
		t.Fatalf("journal path = %q, want %q", got, want)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "trial_chunk") {
		t.Fatalf("sample config missing trial_chunk knob: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Engine.TrialChunk != 2048 {
		t.Fatalf("sample trial chunk = %d, want 2048", cfg.Engine.TrialChunk)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	cfg.Engine.TrialChunk = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero trial chunk")
	}

	cfg = config.Default()
	cfg.Journal.Filename = "nested/journal.db"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for journal filename with a path separator")
	}

	cfg = config.Default()
	cfg.IO.RetryAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero retry attempts")
	}

	cfg = config.Default()
	cfg.IO.LockTimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero lock timeout")
	}
}
