package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"showsync/internal/bootstrap"
	"showsync/internal/config"
	"showsync/internal/logging"
	"showsync/internal/storage"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync progress and cache totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				out := cmd.OutOrStdout()

				totals, err := store.Totals(cmd.Context())
				if err != nil {
					return err
				}
				heading(out, "Run totals")
				lastRun := "never"
				if !totals.LastRunAt.IsZero() {
					lastRun = totals.LastRunAt.Format("2006-01-02 15:04:05 MST")
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Processed", "Succeeded", "Not Found", "Failed", "Last Run"},
					[][]string{{
						strconv.FormatInt(totals.Processed, 10),
						strconv.FormatInt(totals.Succeeded, 10),
						strconv.FormatInt(totals.NotFound, 10),
						strconv.FormatInt(totals.Failed, 10),
						lastRun,
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
				))

				if err := printProgress(cmd, cfg, store); err != nil {
					return err
				}

				counts, err := store.CacheCounts(cmd.Context())
				if err != nil {
					return err
				}
				heading(out, "Cache entries")
				rows := make([][]string, 0, len(counts))
				for _, ns := range storage.Namespaces() {
					rows = append(rows, []string{string(ns), strconv.FormatInt(counts[ns], 10)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Namespace", "Entries"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))

				fmt.Fprintf(out, "First-result fallback: %s\n", yesNo(cfg.Sync.FallbackFirstResult))
				return nil
			})
		},
	}
}

// printProgress renders per-category cursor positions against the snapshot.
// A missing snapshot is reported, not fatal; status still shows cache totals.
func printProgress(cmd *cobra.Command, cfg *config.Config, store *storage.Store) error {
	out := cmd.OutOrStdout()

	snapshot, err := bootstrap.NewSource(cfg, nil, logging.NewNop()).Load()
	if err != nil {
		fmt.Fprintf(out, "Bootstrap snapshot unavailable: %v\n", err)
		return nil
	}
	cursors, err := store.Cursors(cmd.Context())
	if err != nil {
		return err
	}
	positions := make(map[int64]int64, len(cursors))
	for _, cursor := range cursors {
		positions[cursor.CategoryID] = cursor.Position
	}

	heading(out, "Category progress")
	rows := make([][]string, 0, len(snapshot.Categories))
	pending := 0
	for _, category := range snapshot.Categories {
		total := len(snapshot.Shows(category.ID))
		done := int(positions[category.ID])
		if done > total {
			done = total
		}
		pending += total - done
		rows = append(rows, []string{
			category.Name,
			fmt.Sprintf("%d/%d", done, total),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Processed"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	fmt.Fprintf(out, "Shows pending: %d\n", pending)
	return nil
}
