package main

import (
	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/sources"
)

func newSourcesCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List metadata sources and whether their credentials are set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			var rows [][]string
			for _, p := range sources.Providers(cfg.Providers, sources.Deps{}) {
				rows = append(rows, []string{p.ID(), credentialStatus(p.MissingCredentials())})
			}
			PrintTable([]string{"Source", "Credentials"}, rows)
			return nil
		},
	}
}
