package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"TickerBoard/internal/logging"
	"TickerBoard/internal/provider"
)

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show the effective provider settings",
		Long:  "Show the providers as the engine would resolve them: built-in defaults,\nthen the config file and environment, then settings saved at runtime.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ps, err := openPersist(cfg, logging.Nop())
			if err != nil {
				return err
			}
			defer ps.Close()
			snap, err := ps.Load()
			if err != nil {
				return err
			}
			reg := provider.NewRegistry(append(cfg.ProviderOverrides(), snap.Providers...))

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"ID", "Name", "Enabled", "Key", "Usable", "Operations"})
			for _, p := range reg.List() {
				ops := make([]string, 0, len(p.Endpoints))
				for op := range p.Endpoints {
					ops = append(ops, op)
				}
				sort.Strings(ops)
				key := "missing"
				if p.APIKey != "" {
					key = "set"
				}
				tw.Append([]string{p.ID, p.Name, fmt.Sprint(p.Enabled), key, fmt.Sprint(p.Usable()), strings.Join(ops, ",")})
			}
			tw.Render()

			if _, err := reg.Resolve(""); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nwarning: %v\n", err)
			}
			return nil
		},
	}
	return cmd
}
