package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	if err := c.validateIO(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLog() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json (got %q)", c.Log.Format)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Workers < 0 {
		return errors.New("engine.workers must be >= 0")
	}
	if c.Engine.TrialChunk <= 0 {
		return errors.New("engine.trial_chunk must be positive")
	}
	return nil
}

func (c *Config) validateJournal() error {
	if !c.Journal.Enabled {
		return nil
	}
	name := c.Journal.Filename
	if name == "" {
		return errors.New("journal.filename must be set when journal.enabled is true")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("journal.filename must be a bare file name, not a path (got %q)", name)
	}
	return nil
}

func (c *Config) validateIO() error {
	if c.IO.RetryAttempts < 1 {
		return errors.New("io.retry_attempts must be >= 1")
	}
	if c.IO.RetryBackoffMS < 0 {
		return errors.New("io.retry_backoff_ms must be >= 0")
	}
	if c.IO.LockTimeoutSeconds <= 0 {
		return errors.New("io.lock_timeout_seconds must be positive")
	}
	return nil
}
