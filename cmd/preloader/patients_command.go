package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"preloader/internal/api"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

func newPatientsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "patients",
		Short: "List preloaded patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				patients, err := client.ListPatients(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(patients) == 0 {
					fmt.Fprintln(out, "No patients preloaded")
					return nil
				}

				rows := make([][]string, 0, len(patients))
				for _, p := range patients {
					rows = append(rows, []string{
						p.Key,
						titleCaser.String(p.Name),
						p.DOB,
						p.ClinicDate,
						strconv.Itoa(p.StudyCount),
						strconv.Itoa(p.ImageCount),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Key", "Name", "DOB", "Clinic Date", "Studies", "Images"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				fmt.Fprintf(out, "%d patient(s)\n", len(patients))
				return nil
			})
		},
	}
}

func newPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending refresh requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				pending, err := client.PendingRefreshes(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprintln(out, "No pending refresh requests")
					return nil
				}

				keys := make([]string, 0, len(pending))
				for key := range pending {
					keys = append(keys, key)
				}
				sort.Strings(keys)

				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, pending[key].Format(time.RFC3339)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Patient", "Requested (UTC)"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
