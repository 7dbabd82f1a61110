package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/config"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources"
)

func newConfigCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(newConfigShowCommand(cc))
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand(cc))
	return cmd
}

func newConfigShowCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			masked := cfg.Masked()
			if outputCfg.JSON {
				printJSON(masked)
				return nil
			}
			data, err := masked.Marshal()
			if err != nil {
				return err
			}
			PrintResult(data)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a starter configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".romscraper.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			data, err := config.Example().Marshal()
			if err != nil {
				return err
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // config dir
					return err
				}
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}
			PrintInfo("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check scraper settings without contacting any source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			resolver, err := cc.ensurePlatforms()
			if err != nil {
				return err
			}
			settings, err := buildSettings(cfg.Scraper, cfg.Assets, false)
			if err != nil {
				return err
			}
			builder := scraper.NewChainBuilder(resolver, nil, scraper.FirstOption{}, nil,
				sources.Providers(cfg.Providers, sources.Deps{})...)
			if err := builder.Validate(settings); err != nil {
				return err
			}
			PrintInfo("Configuration OK: %s\n", describeSettings(settings))
			return nil
		},
	}
}
