package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"genreclf/internal/config"
	"genreclf/internal/ledger"
	"genreclf/internal/logging"
	"genreclf/internal/notifications"
	"genreclf/internal/pipeline"
	"genreclf/internal/services/registry"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue falls back to a console logger when the configured outputs
// cannot be opened.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "info", Format: "console"})
			logger.Warn("log file unavailable; logging to stderr only", logging.Args(logging.Error(err))...)
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openLedger(ctx context.Context) (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(ctx, cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	return store, nil
}

// newRunner wires the registry, ledger, and notifier into a pipeline runner.
// The returned cleanup closes whatever was opened.
func (c *commandContext) newRunner(ctx context.Context) (*pipeline.Runner, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := c.loggerValue()

	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	reg, regCloser, err := registry.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, regCloser)

	opts := []pipeline.Option{
		pipeline.WithRegistry(reg),
		pipeline.WithNotifier(notifications.NewService(cfg)),
	}
	store, err := c.openLedger(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable; history will not be recorded", "ledger_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "genreclf runs will not show this run"),
		)
	} else {
		closers = append(closers, store)
		opts = append(opts, pipeline.WithLedger(store))
	}

	return pipeline.NewRunner(cfg, logger, opts...), cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
