package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"showsync/internal/config"
	"showsync/internal/logging"
	"showsync/internal/playlist"
	"showsync/internal/services"
)

const (
	categoriesFile = "categories.json"
	showsFile      = "shows.json"
)

// Snapshot holds the bootstrap data a sync run iterates over. Categories are
// ordered by ID ascending; shows within a category keep their file order.
type Snapshot struct {
	Categories []playlist.Category
	shows      map[int64][]playlist.Show
}

// Shows returns the shows belonging to the given category in snapshot order.
func (s *Snapshot) Shows(categoryID int64) []playlist.Show {
	return s.shows[categoryID]
}

// ShowCount returns the total number of shows across all categories.
func (s *Snapshot) ShowCount() int {
	total := 0
	for _, shows := range s.shows {
		total += len(shows)
	}
	return total
}

// Source loads and refreshes the bootstrap snapshot files.
type Source struct {
	dir    string
	editor playlist.Editor
	logger *slog.Logger
}

// NewSource creates a snapshot source rooted at the configured data directory.
func NewSource(cfg *config.Config, editor playlist.Editor, logger *slog.Logger) *Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Source{
		dir:    cfg.Paths.DataDir,
		editor: editor,
		logger: logging.NewComponentLogger(logger, "bootstrap"),
	}
}

type fileEnvelope[T any] struct {
	Items []T `json:"items"`
}

// Load reads the snapshot files from disk. A missing file means the operator
// has never refreshed and is reported as a configuration problem.
func (s *Source) Load() (*Snapshot, error) {
	categories, err := readItems[playlist.Category](filepath.Join(s.dir, categoriesFile))
	if err != nil {
		return nil, err
	}
	shows, err := readItems[playlist.Show](filepath.Join(s.dir, showsFile))
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Categories: categories,
		shows:      make(map[int64][]playlist.Show, len(categories)),
	}
	sort.Slice(snapshot.Categories, func(i, j int) bool {
		return snapshot.Categories[i].ID < snapshot.Categories[j].ID
	})
	known := make(map[int64]bool, len(categories))
	for _, category := range categories {
		known[category.ID] = true
	}
	orphaned := 0
	for _, show := range shows {
		if !known[show.Category] {
			orphaned++
			continue
		}
		snapshot.shows[show.Category] = append(snapshot.shows[show.Category], show)
	}
	if orphaned > 0 {
		s.logger.Warn("ignoring shows with unknown categories",
			logging.Int("count", orphaned))
	}

	s.logger.Debug("loaded bootstrap snapshot",
		logging.Int("categories", len(snapshot.Categories)),
		logging.Int("shows", snapshot.ShowCount()))
	return snapshot, nil
}

// Refresh pulls fresh category and show listings from the playlist service
// and rewrites both snapshot files atomically.
func (s *Source) Refresh(ctx context.Context) (*Snapshot, error) {
	categories, err := s.editor.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	shows, err := s.editor.ListShows(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch shows: %w", err)
	}

	if err := writeItems(filepath.Join(s.dir, categoriesFile), categories); err != nil {
		return nil, err
	}
	if err := writeItems(filepath.Join(s.dir, showsFile), shows); err != nil {
		return nil, err
	}

	s.logger.Info("refreshed bootstrap snapshot",
		logging.Int("categories", len(categories)),
		logging.Int("shows", len(shows)))
	return s.Load()
}

func readItems[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "bootstrap", "load snapshot",
				fmt.Sprintf("%s missing; run 'showsync bootstrap refresh' first", filepath.Base(path)), nil)
		}
		return nil, services.Wrap(services.ErrStateCorrupt, "bootstrap", "load snapshot", "read file", err)
	}
	var envelope fileEnvelope[T]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, services.Wrap(services.ErrStateCorrupt, "bootstrap", "load snapshot",
			fmt.Sprintf("parse %s", filepath.Base(path)), err)
	}
	return envelope.Items, nil
}

func writeItems[T any](path string, items []T) error {
	data, err := json.MarshalIndent(fileEnvelope[T]{Items: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
