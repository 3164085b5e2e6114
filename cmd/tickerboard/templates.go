package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"TickerBoard/internal/store"
)

func newTemplatesCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in dashboard templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := store.Templates()
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), all)
			}
			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"ID", "Name", "Category", "Widgets", "Description"})
			for _, t := range all {
				tw.Append([]string{t.ID, t.Name, t.Category, fmt.Sprint(len(t.Widgets)), t.Description})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "table", "output format (table|json)")
	return cmd
}
