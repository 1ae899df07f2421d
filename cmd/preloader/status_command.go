package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"preloader/internal/api"
	"preloader/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon reachability and readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			reachable := false
			if err := ctx.withClient(func(client *api.Client) error {
				_, err := client.Health(checkCtx)
				return err
			}); err == nil {
				reachable = true
			}

			rows := [][]string{
				{"Daemon", yesNo(reachable), cfg.Paths.Bind},
			}
			for _, res := range preflight.RunAll(checkCtx, cfg) {
				rows = append(rows, []string{res.Name, yesNo(res.Passed), res.Detail})
			}
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				detail := dep.Detail
				if dep.Available {
					detail = dep.Command
				}
				rows = append(rows, []string{dep.Name, yesNo(dep.Available), detail})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Check", "OK", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
