package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/sources"
)

func newPlatformsCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "Inspect the platform table",
	}
	cmd.AddCommand(newPlatformsListCommand(cc))
	cmd.AddCommand(newPlatformsResolveCommand(cc))
	return cmd
}

func newPlatformsListCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known platforms and their provider codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := cc.ensurePlatforms()
			if err != nil {
				return err
			}
			ids := sources.IDs()
			headers := append([]string{"Platform"}, ids...)
			var rows [][]string
			for _, name := range resolver.Names() {
				codes := resolver.Codes(name)
				row := []string{name}
				for _, id := range ids {
					row = append(row, codes[id])
				}
				rows = append(rows, row)
			}
			PrintTable(headers, rows)
			return nil
		},
	}
}

type resolution struct {
	Platform  string `json:"platform"`
	Canonical string `json:"canonical"`
	Provider  string `json:"provider"`
	Code      string `json:"code"`
	Known     bool   `json:"known"`
}

func newPlatformsResolveCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <platform> [provider]",
		Short: "Show the code a provider uses for a platform",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := cc.ensurePlatforms()
			if err != nil {
				return err
			}
			name, err := resolvePlatformFlag(resolver, args[0])
			if err != nil {
				return err
			}
			canonical, _ := resolver.Canonical(name)

			providers := sources.IDs()
			if len(args) == 2 {
				providers = []string{args[1]}
			}

			var out []resolution
			var rows [][]string
			for _, p := range providers {
				code := resolver.Resolve(name, p)
				out = append(out, resolution{
					Platform: name, Canonical: canonical, Provider: p,
					Code: code.Value, Known: code.Known,
				})
				rows = append(rows, []string{p, code.String()})
			}
			if outputCfg.JSON {
				printJSON(out)
				return nil
			}
			PrintInfo("%s (canonical: %s)\n", name, canonical)
			PrintTable([]string{"Provider", "Code"}, rows)
			return nil
		},
	}
}

func joinIDs() string {
	return strings.Join(sources.IDs(), ", ")
}

func credentialStatus(missing []string) string {
	if len(missing) == 0 {
		return "ok"
	}
	return fmt.Sprintf("missing %v", missing)
}
