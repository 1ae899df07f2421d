package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"preloader/internal/api"
)

func newClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all preloaded patients and stored images",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to wipe the cache without --force")
			}
			return ctx.withClient(func(client *api.Client) error {
				if err := client.ClearAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm deletion of all cached data")
	return cmd
}
