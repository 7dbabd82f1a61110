package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/romstore"
)

func newExportCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export scraped records",
	}
	cmd.AddCommand(newExportGamelistCommand(cc))
	return cmd
}

func newExportGamelistCommand(cc *commandContext) *cobra.Command {
	var (
		output string
		opts   romstore.GamelistOptions
	)
	cmd := &cobra.Command{
		Use:   "gamelist <platform>",
		Short: "Write an EmulationStation gamelist.xml for a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			resolver, err := cc.ensurePlatforms()
			if err != nil {
				return err
			}
			name, err := resolvePlatformFlag(resolver, args[0])
			if err != nil {
				return err
			}

			store, err := romstore.Open(cmd.Context(), cfg.GetDBPath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			data, err := store.ExportGamelist(cmd.Context(), name, opts)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = outputCfg.Out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil { //nolint:gosec // gamelist is public
				return err
			}
			PrintInfo("Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.ScrapedOnly, "scraped-only", false, "Only include ROMs with scraped metadata")
	cmd.Flags().StringVar(&opts.PathPrefix, "prefix", "./", "Prefix for ROM paths (empty keeps absolute paths)")
	return cmd
}
