package config

const (
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
	defaultTrialChunk         = 2048
	defaultJournalFilename    = "journal.db"
	defaultRetryAttempts      = 3
	defaultRetryBackoffMS     = 100
	defaultLockTimeoutSeconds = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Engine: Engine{
			Workers:    0,
			TrialChunk: defaultTrialChunk,
		},
		Journal: Journal{
			Enabled:  true,
			Filename: defaultJournalFilename,
		},
		IO: IO{
			RetryAttempts:      defaultRetryAttempts,
			RetryBackoffMS:     defaultRetryBackoffMS,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
	}
}
