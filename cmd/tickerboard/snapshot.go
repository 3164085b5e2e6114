package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"TickerBoard/internal/format"
	"TickerBoard/internal/model"
	"TickerBoard/internal/normalizer"
)

type rawSnapshot struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Provider string          `json:"provider"`
	Response json.RawMessage `json:"response"`
}

func newSnapshotCmd() *cobra.Command {
	var (
		template string
		raw      bool
		output   string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Refresh every widget once and print the result",
		Long: "Refresh every widget of the saved dashboard, or of a template with --template,\n" +
			"once and print it. --raw prints each payload in its provider's native JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if template != "" {
				// a template preview must not replace the saved dashboard
				cfg.Persist.Driver = "none"
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			if template != "" {
				if _, err := a.store.ApplyTemplate(template); err != nil {
					return err
				}
			}
			a.start()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := a.scheduler.RefreshAll(ctx); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			widgets := a.store.List()
			out := cmd.OutOrStdout()
			switch {
			case raw:
				return printRaw(out, widgets, a.registry.Resolve)
			case output == "json":
				return printJSON(out, widgets)
			}
			for _, w := range widgets {
				fmt.Fprintln(out, format.RenderText(w))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "snapshot a built-in template instead of the saved dashboard")
	cmd.Flags().BoolVar(&raw, "raw", false, "print provider-native JSON for each payload")
	cmd.Flags().StringVar(&output, "output", "text", "output format (text|json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up after this long")
	return cmd
}

func printRaw(out io.Writer, widgets []model.Widget, resolve func(string) (model.ProviderConfig, error)) error {
	var docs []rawSnapshot
	for _, w := range widgets {
		if w.Data == nil {
			continue
		}
		id := w.Config.APIProvider
		if p, err := resolve(id); err == nil {
			id = p.ID
		}
		b, err := normalizer.Denormalize(w.Data, id)
		if err != nil {
			return fmt.Errorf("widget %s: %w", w.ID, err)
		}
		docs = append(docs, rawSnapshot{ID: w.ID, Title: w.Title, Provider: id, Response: b})
	}
	return printJSON(out, docs)
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
