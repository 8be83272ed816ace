package config

import "strings"

func (c *Config) normalize() {
	c.normalizeLog()
	c.normalizeEngine()
	c.normalizeJournal()
	c.normalizeIO()
}

func (c *Config) normalizeLog() {
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "", "console":
		c.Log.Format = "console"
	case "json":
	default:
		c.Log.Format = "console"
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

func (c *Config) normalizeEngine() {
	if c.Engine.Workers < 0 {
		c.Engine.Workers = 0
	}
	if c.Engine.TrialChunk <= 0 {
		c.Engine.TrialChunk = defaultTrialChunk
	}
}

func (c *Config) normalizeJournal() {
	c.Journal.Filename = strings.TrimSpace(c.Journal.Filename)
	if c.Journal.Filename == "" {
		c.Journal.Filename = defaultJournalFilename
	}
}

func (c *Config) normalizeIO() {
	if c.IO.RetryAttempts <= 0 {
		c.IO.RetryAttempts = defaultRetryAttempts
	}
	if c.IO.RetryBackoffMS < 0 {
		c.IO.RetryBackoffMS = defaultRetryBackoffMS
	}
	if c.IO.LockTimeoutSeconds <= 0 {
		c.IO.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
}
