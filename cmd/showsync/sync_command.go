package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"showsync/internal/config"
	"showsync/internal/engine"
	"showsync/internal/storage"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var batchSize int
	var all bool
	var reinit bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Process the next batch of shows",
		Long: "Resolves playlist show titles against TMDB, caches the results, and " +
			"pushes metadata updates to the playlist service. Progress is committed " +
			"after every show, so an interrupted run resumes where it stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}
				eng, err := buildEngine(cfg, store, logger)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				summary, err := eng.Run(runCtx, engine.Options{
					BatchSize:    batchSize,
					All:          all,
					Reinitialize: reinit,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				heading(out, "Run summary")
				fmt.Fprintln(out, renderTable(
					[]string{"Processed", "Succeeded", "Not Found", "Failed", "Skipped", "Remaining", "Success"},
					[][]string{{
						strconv.Itoa(summary.Processed),
						strconv.Itoa(summary.Succeeded),
						strconv.Itoa(summary.NotFound),
						strconv.Itoa(summary.Failed),
						strconv.Itoa(summary.Skipped),
						strconv.Itoa(summary.Remaining),
						percent(summary.SuccessRate()),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				fmt.Fprintln(out, renderCacheStats(summary.Cache))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Number of shows to process (defaults to sync.batch_size)")
	cmd.Flags().BoolVar(&all, "all", false, "Process every remaining show")
	cmd.Flags().BoolVar(&reinit, "reinit", false, "Discard cursors and show records before running")
	return cmd
}

func renderCacheStats(stats map[storage.Namespace]storage.Stats) string {
	rows := make([][]string, 0, len(stats))
	for _, ns := range storage.Namespaces() {
		s := stats[ns]
		rows = append(rows, []string{
			string(ns),
			strconv.FormatInt(s.Hits, 10),
			strconv.FormatInt(s.Misses, 10),
			percent(s.HitRate()),
		})
	}
	return renderTable(
		[]string{"Namespace", "Hits", "Misses", "Hit Rate"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	)
}
