package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"showgrab/internal/config"
	"showgrab/internal/logging"
)

// commandContext lazily loads configuration and the logger so that commands
// which do not need them (config init, version) never touch the filesystem.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	logCloser  io.Closer
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
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger from the loaded config. Falls back
// to a console stderr logger when the configured log file cannot be opened.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		opts := logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		}
		if cfg.Logging.File != "" {
			out, err := logging.OpenLogFile(cfg.Logging.File)
			if err == nil {
				opts.Output = out
				if closer, ok := out.(io.Closer); ok {
					c.logCloser = closer
				}
				if opts.Format == "" || opts.Format == "auto" {
					opts.Format = "json"
				}
			}
		}
		logger, err := logging.New(opts)
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: cfg.Logging.Level, Format: "console"})
		}
		c.logger = logger
	})
	return c.logger, nil
}

func (c *commandContext) closeLog() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
