package main

import (
	"log/slog"
	"strings"
	"sync"

	"tally/internal/config"
	"tally/internal/convert"
	"tally/internal/logging"
	"tally/internal/rules"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, _ = logging.WithRunID(logger)
	})
	return c.logger, c.loggerErr
}

// registry builds the conversion chain registry with every built-in rule set
// registered.
func (c *commandContext) registry() (*convert.Registry, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	reg := convert.NewRegistry(logger)
	if err := rules.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (c *commandContext) convertOptions() convert.ConvertOptions {
	cfg := c.config
	return convert.ConvertOptions{
		MustMatch: cfg.Convert.MustMatch,
		Merge:     cfg.Convert.Merge,
		MergeKeys: cfg.Convert.MergeKeys,
		Rules: convert.Options{
			DatetimeMiddle: cfg.Convert.DatetimeMiddle,
			NightlyCutoff:  cfg.Convert.NightlyCutoff,
		},
	}
}
