package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ballotproof/internal/config"
	"ballotproof/internal/csvio"
	"ballotproof/internal/load"
	"ballotproof/internal/logging"
	"ballotproof/internal/stage"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string
	formatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logOnce sync.Once
	log     *slog.Logger
	logErr  error
}

func newCommandContext(configFlag, levelFlag, formatFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
		formatFlag: formatFlag,
	}
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
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the process logger once, letting the persistent flags
// override the configured level and format.
func (c *commandContext) logger() (*slog.Logger, error) {
	c.logOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		level, format := cfg.Log.Level, cfg.Log.Format
		if c.levelFlag != nil && strings.TrimSpace(*c.levelFlag) != "" {
			level = strings.TrimSpace(*c.levelFlag)
		}
		if c.formatFlag != nil && strings.TrimSpace(*c.formatFlag) != "" {
			format = strings.TrimSpace(*c.formatFlag)
		}
		c.log, c.logErr = logging.New(logging.Options{Level: level, Format: format})
	})
	return c.log, c.logErr
}

func (c *commandContext) retry() csvio.Retry {
	cfg, err := c.ensureConfig()
	if err != nil {
		return csvio.DefaultRetry
	}
	return csvio.Retry{Attempts: cfg.IO.RetryAttempts, Backoff: cfg.RetryBackoff()}
}

func (c *commandContext) loader(dir string) (*load.Loader, error) {
	log, err := c.logger()
	if err != nil {
		return nil, err
	}
	return load.New(dir, c.retry(), log), nil
}

func (c *commandContext) stageOptions(dir string) (stage.Options, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return stage.Options{}, err
	}
	log, err := c.logger()
	if err != nil {
		return stage.Options{}, err
	}
	return stage.Options{
		Dir:         dir,
		Workers:     cfg.Engine.Workers,
		TrialChunk:  cfg.Engine.TrialChunk,
		Retry:       c.retry(),
		LockWait:    cfg.LockTimeout(),
		JournalPath: cfg.JournalPath(dir),
		Log:         log,
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
