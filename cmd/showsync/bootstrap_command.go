package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"showsync/internal/bootstrap"
	"showsync/internal/playlist"
)

func newBootstrapCommand(ctx *commandContext) *cobra.Command {
	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Manage the local category and show snapshot",
	}

	bootstrapCmd.AddCommand(newBootstrapRefreshCommand(ctx))

	return bootstrapCmd
}

func newBootstrapRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch categories and shows from the playlist service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			editor, err := playlist.New(cfg.Playlist, logger)
			if err != nil {
				return fmt.Errorf("init playlist client: %w", err)
			}

			snapshot, err := bootstrap.NewSource(cfg, editor, logger).Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot refreshed: %d categories, %d shows\n",
				len(snapshot.Categories), snapshot.ShowCount())
			return nil
		},
	}
}
