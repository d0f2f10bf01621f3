package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"showsync/internal/config"
	"showsync/internal/storage"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the metadata cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheSearchCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts per namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				counts, err := store.CacheCounts(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(counts))
				var total int64
				for _, ns := range storage.Namespaces() {
					rows = append(rows, []string{string(ns), strconv.FormatInt(counts[ns], 10)})
					total += counts[ns]
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Namespace", "Entries"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total entries: %d (db: %s)\n", total, store.Path())
				return nil
			})
		},
	}
}

func newCacheSearchCommand(ctx *commandContext) *cobra.Command {
	var namespaceFlag string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Fuzzy-search cached keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				namespaces, err := resolveNamespaces(namespaceFlag)
				if err != nil {
					return err
				}

				term := strings.TrimSpace(args[0])
				var rows [][]string
				for _, ns := range namespaces {
					keys, err := store.Keys(cmd.Context(), ns)
					if err != nil {
						return err
					}
					ranks := fuzzy.RankFindNormalizedFold(term, keys)
					for _, rank := range ranks {
						rows = append(rows, []string{string(ns), rank.Target})
					}
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintf(out, "No cached keys match %q\n", term)
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Namespace", "Key"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&namespaceFlag, "namespace", "n", "", "Restrict to one namespace (search, details, episodes, update)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var namespaceFlag string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				ns := storage.Namespace(strings.TrimSpace(namespaceFlag))
				if ns != "" {
					if !validNamespace(ns) {
						return fmt.Errorf("unknown namespace %q", namespaceFlag)
					}
				}
				removed, err := store.ClearCache(cmd.Context(), ns)
				if err != nil {
					return err
				}
				scope := "all namespaces"
				if ns != "" {
					scope = string(ns)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries (%s)\n", removed, scope)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&namespaceFlag, "namespace", "n", "", "Clear only one namespace")
	return cmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired not-found markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				removed, err := store.PruneExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired entries\n", removed)
				return nil
			})
		},
	}
}

func resolveNamespaces(flag string) ([]storage.Namespace, error) {
	trimmed := strings.TrimSpace(flag)
	if trimmed == "" {
		return storage.Namespaces(), nil
	}
	ns := storage.Namespace(trimmed)
	if !validNamespace(ns) {
		return nil, fmt.Errorf("unknown namespace %q", flag)
	}
	return []storage.Namespace{ns}, nil
}

func validNamespace(ns storage.Namespace) bool {
	for _, known := range storage.Namespaces() {
		if ns == known {
			return true
		}
	}
	return false
}
