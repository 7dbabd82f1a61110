package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/config"
	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/tracing"
)

// errIncomplete marks runs that finished but left ROMs unscraped.
var errIncomplete = errors.New("scrape incomplete")

type commandContext struct {
	configFlag string
	logLevel   string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	platformsOnce sync.Once
	platforms     *platform.Resolver
	platformsErr  error

	tracingShutdown func(context.Context) error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(c.configFlag)
		if path != "" {
			c.config, c.configErr = config.LoadFile(path)
		} else {
			c.config, c.configErr = config.Load()
		}
		if c.configErr != nil {
			c.configErr = fmt.Errorf("load config: %w", c.configErr)
		}
	})
	return c.config, c.configErr
}

func (c *commandContext) ensurePlatforms() (*platform.Resolver, error) {
	c.platformsOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.platformsErr = err
			return
		}
		c.platforms, c.platformsErr = platform.Load(cfg.PlatformsFile)
	})
	return c.platforms, c.platformsErr
}

// setup initializes logging and tracing from the loaded configuration.
func (c *commandContext) setup(ctx context.Context) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logCfg := cfg.Logging
	if c.logLevel != "" {
		logCfg.Level = c.logLevel
	}
	logging.Setup(logCfg)

	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logging.Error("failed to setup tracing", "error", err)
		return nil
	}
	c.tracingShutdown = shutdown
	return nil
}

func (c *commandContext) shutdown(ctx context.Context) {
	if c.tracingShutdown == nil {
		return
	}
	if err := c.tracingShutdown(ctx); err != nil {
		logging.Error("failed to shutdown tracing", "error", err)
	}
}

func newRootCommand(cc *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "romscraper",
		Short:         "Scrape ROM metadata and artwork from online sources",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return cc.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cc.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&cc.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.BoolVar(&outputCfg.JSON, "json", false, "Print machine readable JSON")
	flags.BoolVarP(&outputCfg.Quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(newScrapeCommand(cc))
	rootCmd.AddCommand(newPlatformsCommand(cc))
	rootCmd.AddCommand(newSourcesCommand(cc))
	rootCmd.AddCommand(newConfigCommand(cc))
	rootCmd.AddCommand(newExportCommand(cc))
	rootCmd.AddCommand(newServeCommand(cc))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// exitCode maps errors to process exit codes: 2 for configuration problems,
// 3 for incomplete runs, 1 otherwise.
func exitCode(err error) int {
	var cfgErr *scraper.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return 2
	case errors.Is(err, errIncomplete):
		return 3
	default:
		return 1
	}
}
