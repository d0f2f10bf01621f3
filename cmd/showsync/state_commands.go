package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"showsync/internal/config"
	"showsync/internal/storage"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Manage resumable run state",
	}

	stateCmd.AddCommand(newStateResetCommand(ctx))

	return stateCmd
}

func newStateResetCommand(ctx *commandContext) *cobra.Command {
	var categoryID int64

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset cursors and show records",
		Long: "Discards progress so the next sync starts over. Cached metadata is " +
			"kept; use 'cache clear' to discard that too.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				var target *int64
				if cmd.Flags().Changed("category") {
					target = &categoryID
				}
				if err := store.ResetState(cmd.Context(), target); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if target != nil {
					fmt.Fprintf(out, "Reset state for category %d\n", *target)
					return nil
				}
				fmt.Fprintln(out, "Reset all run state")
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&categoryID, "category", 0, "Reset only this category")
	return cmd
}
