package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Log contains configuration for log output.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Engine contains configuration for the Monte Carlo risk engine.
type Engine struct {
	// Workers caps the estimator goroutine pool. Zero means one worker
	// per CPU.
	Workers int `toml:"workers"`
	// TrialChunk is the number of trials handed to a worker at a time.
	// For a fixed value estimates are reproducible at any worker count.
	TrialChunk int `toml:"trial_chunk"`
}

// Journal contains configuration for the stage-run journal database.
type Journal struct {
	Enabled bool `toml:"enabled"`
	// Filename is resolved relative to the election directory.
	Filename string `toml:"filename"`
}

// IO contains configuration for reading and writing election files.
type IO struct {
	RetryAttempts      int `toml:"retry_attempts"`
	RetryBackoffMS     int `toml:"retry_backoff_ms"`
	LockTimeoutSeconds int `toml:"lock_timeout_seconds"`
}

// Config encapsulates all operational configuration for ballotproof.
//
// Configuration sections by subsystem:
//   - Log: log level and output format
//   - Engine: risk estimator worker pool and chunking
//   - Journal: sqlite stage-run journal placement
//   - IO: CSV read retries and the election directory lock
type Config struct {
	Log     Log     `toml:"log"`
	Engine  Engine  `toml:"engine"`
	Journal Journal `toml:"journal"`
	IO      IO      `toml:"io"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location, honoring XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return expandPath(filepath.Join(base, "ballotproof", "config.toml"))
	}
	return expandPath("~/.config/ballotproof/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; the returned config then carries repository defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ballotproof.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RetryBackoff returns the pause between CSV read attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.IO.RetryBackoffMS) * time.Millisecond
}

// LockTimeout returns how long a stage waits for the election directory lock.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.IO.LockTimeoutSeconds) * time.Second
}

// JournalPath resolves the journal database location inside an election
// directory. It returns the empty string when the journal is disabled.
func (c *Config) JournalPath(electionDir string) string {
	if !c.Journal.Enabled {
		return ""
	}
	return filepath.Join(electionDir, c.Journal.Filename)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
