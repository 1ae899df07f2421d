package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"preloader/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var patientKey string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ingestion journal events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			events, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer events.Close()

			var entries []journal.Event
			if patientKey != "" {
				entries, err = events.ForPatient(cmd.Context(), patientKey, limit)
			} else {
				entries, err = events.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No journal events")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, evt := range entries {
				detail := evt.Filename
				if detail == "" {
					detail = evt.Detail
				}
				rows = append(rows, []string{
					evt.CreatedAt.Local().Format(time.DateTime),
					string(evt.Kind),
					evt.PatientKey,
					evt.StudyKey,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Event", "Patient", "Study", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of events to show")
	cmd.Flags().StringVarP(&patientKey, "patient", "p", "", "Only show events for this patient key")
	return cmd
}
