package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transcription requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
				return fmt.Errorf("journal is disabled in the configuration")
			}

			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No transcription requests recorded yet in %s.\n", store.Path())
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				status := entry.Status
				if entry.FailureKind != "" {
					status = fmt.Sprintf("%s (%s)", entry.Status, entry.FailureKind)
				}
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format(time.DateTime),
					truncate(entry.Source, 48),
					entry.Provider,
					entry.Backend,
					status,
					formatDuration(entry.DurationSeconds),
					strconv.Itoa(entry.TranscriptChars),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Source", "Provider", "Backend", "Status", "Duration", "Chars"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).Round(time.Second).String()
}
