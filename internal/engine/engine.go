package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"showsync/internal/bootstrap"
	"showsync/internal/config"
	"showsync/internal/logging"
	"showsync/internal/match"
	"showsync/internal/playlist"
	"showsync/internal/provider/tmdb"
	"showsync/internal/services"
	"showsync/internal/storage"
)

// Resolver is the title resolution dependency.
type Resolver interface {
	Resolve(ctx context.Context, title string) (match.Outcome, error)
}

// Options controls a single sync run.
type Options struct {
	// BatchSize overrides the configured batch size when positive.
	BatchSize int
	// All processes every remaining show regardless of batch size.
	All bool
	// Reinitialize discards cursors and show records before the run.
	Reinitialize bool
}

// RunSummary reports what one run accomplished.
type RunSummary struct {
	RunID     string
	Processed int
	Succeeded int
	NotFound  int
	Failed    int
	Skipped   int
	Remaining int
	Elapsed   time.Duration
	Cache     map[storage.Namespace]storage.Stats
}

// SuccessRate returns the fraction of processed shows that resolved.
func (s RunSummary) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Processed)
}

// Engine drives sync runs against the store, provider, and playlist service.
type Engine struct {
	cfg      *config.Config
	store    *storage.Store
	resolver Resolver
	provider tmdb.Provider
	editor   playlist.Editor
	source   *bootstrap.Source
	logger   *slog.Logger
	phase    Phase
}

// New assembles an engine from its collaborators.
func New(cfg *config.Config, store *storage.Store, resolver Resolver, provider tmdb.Provider, editor playlist.Editor, source *bootstrap.Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		provider: provider,
		editor:   editor,
		source:   source,
		logger:   logging.NewComponentLogger(logger, "engine"),
		phase:    PhaseIdle,
	}
}

// workItem is one show pending processing, with its category and the cursor
// position processing it will advance to.
type workItem struct {
	category playlist.Category
	show     playlist.Show
	position int64
}

// Run executes one sync run and returns its summary. Only one run may be
// active per data directory; concurrent invocations fail fast on the lock.
func (e *Engine) Run(ctx context.Context, opts Options) (RunSummary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger)
	summary := RunSummary{RunID: runID}
	started := time.Now()

	unlock, err := e.acquireLock()
	if err != nil {
		return summary, err
	}
	defer unlock()

	// Each run starts a fresh lifecycle, including after a failed run.
	e.phase = PhaseIdle

	if err := e.advance(PhaseLoadingState); err != nil {
		return summary, err
	}
	pending, err := e.loadWork(ctx, opts)
	if err != nil {
		return summary, err
	}

	if err := e.advance(PhaseSelectingBatch); err != nil {
		return summary, err
	}
	batch := e.selectBatch(pending, opts)
	summary.Remaining = len(pending) - len(batch)
	logger.Info("starting sync run",
		logging.Int("batch", len(batch)),
		logging.Int("pending", len(pending)))

	for i, item := range batch {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if i > 0 {
			if err := e.advance(PhaseSelectingBatch); err != nil {
				return summary, err
			}
		}
		if err := e.advance(PhaseProcessingShow); err != nil {
			return summary, err
		}

		// The in-flight show runs to completion so its outcome and cursor
		// advance commit together; cancellation takes effect at the next
		// batch-selection boundary.
		showCtx := services.WithCategoryID(context.WithoutCancel(ctx), item.category.ID)
		showCtx = services.WithShowTitle(showCtx, item.show.Name)
		record := e.processShow(showCtx, item)

		if err := e.advance(PhasePersistingProgress); err != nil {
			return summary, err
		}
		if err := e.store.CommitProgress(showCtx, record.record, item.position); err != nil {
			return summary, fmt.Errorf("commit progress for show %d: %w", item.show.ID, err)
		}

		summary.Processed++
		switch record.record.Status {
		case storage.ShowStatusResolved:
			summary.Succeeded++
			if record.skipped {
				summary.Skipped++
			}
		case storage.ShowStatusNotFound:
			summary.NotFound++
		case storage.ShowStatusError:
			summary.Failed++
		}
	}

	if err := e.advance(PhaseSummarizing); err != nil {
		return summary, err
	}
	summary.Elapsed = time.Since(started)
	summary.Cache = e.store.Stats()
	for _, ns := range storage.Namespaces() {
		stats := summary.Cache[ns]
		logger.Info("cache namespace totals",
			logging.String(logging.FieldNamespace, string(ns)),
			logging.Int64("hits", stats.Hits),
			logging.Int64("misses", stats.Misses),
			logging.Float64("hit_rate", stats.HitRate()))
	}
	logger.Info("sync run finished",
		logging.Int("processed", summary.Processed),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("not_found", summary.NotFound),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed))

	if err := e.advance(PhaseComplete); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *Engine) acquireLock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(e.cfg.Paths.RunLockFile), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(e.cfg.Paths.RunLockFile)
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !held {
		return nil, services.Wrap(services.ErrTransient, "engine", "acquire run lock",
			"another sync is already running", nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("release run lock failed", logging.Error(err))
		}
	}, nil
}

// loadWork loads the snapshot, reconciles cursors against it, and returns the
// flattened list of unprocessed shows in stable order.
func (e *Engine) loadWork(ctx context.Context, opts Options) ([]workItem, error) {
	snapshot, err := e.source.Load()
	if err != nil {
		return nil, err
	}

	if opts.Reinitialize {
		if err := e.store.ResetState(ctx, nil); err != nil {
			return nil, err
		}
		e.logger.Info("reinitialized run state")
	}

	categoryIDs := make([]int64, 0, len(snapshot.Categories))
	for _, category := range snapshot.Categories {
		categoryIDs = append(categoryIDs, category.ID)
	}
	if err := e.store.InitCursors(ctx, categoryIDs); err != nil {
		return nil, err
	}

	cursors, err := e.store.Cursors(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		known[id] = true
	}
	positions := make(map[int64]int64, len(cursors))
	for _, cursor := range cursors {
		if !known[cursor.CategoryID] {
			return nil, services.Wrap(services.ErrStateCorrupt, "engine", "load state",
				fmt.Sprintf("cursor references unknown category %d; run 'showsync state reset' or sync with --reinit", cursor.CategoryID), nil)
		}
		positions[cursor.CategoryID] = cursor.Position
	}

	var pending []workItem
	for _, category := range snapshot.Categories {
		shows := snapshot.Shows(category.ID)
		position := positions[category.ID]
		if position > int64(len(shows)) {
			return nil, services.Wrap(services.ErrStateCorrupt, "engine", "load state",
				fmt.Sprintf("cursor for category %d is past the end of its show list; run 'showsync state reset' or sync with --reinit", category.ID), nil)
		}
		for i := position; i < int64(len(shows)); i++ {
			pending = append(pending, workItem{
				category: category,
				show:     shows[i],
				position: i + 1,
			})
		}
	}
	return pending, nil
}

func (e *Engine) selectBatch(pending []workItem, opts Options) []workItem {
	if opts.All {
		return pending
	}
	size := opts.BatchSize
	if size <= 0 {
		size = e.cfg.Sync.BatchSize
	}
	if size > len(pending) {
		size = len(pending)
	}
	return pending[:size]
}

// showResult pairs the persisted record with run bookkeeping.
type showResult struct {
	record  storage.ShowRecord
	skipped bool
}

// processShow resolves one show and, on success, warms the details and
// episodes caches and pushes the update. Failures never abort the run; the
// show is recorded with an error status and the cursor still advances.
func (e *Engine) processShow(ctx context.Context, item workItem) showResult {
	logger := logging.WithContext(ctx, e.logger)
	record := storage.ShowRecord{
		CategoryID: item.category.ID,
		ShowID:     item.show.ID,
		Title:      item.show.Name,
		UpdatedAt:  time.Now().UTC(),
	}

	outcome, err := e.resolver.Resolve(ctx, item.show.Name)
	if err != nil {
		record.Status = storage.ShowStatusError
		logging.ErrorWithContext(logger, "title resolution failed", logging.Error(err))
		return showResult{record: record}
	}
	if !outcome.Found {
		record.Status = storage.ShowStatusNotFound
		logger.Info("show not found",
			logging.String("reason", outcome.Reason))
		return showResult{record: record}
	}

	record.TMDBID = outcome.Show.TMDBID
	if err := e.ensureDetails(ctx, outcome.Show.TMDBID); err != nil {
		record.Status = storage.ShowStatusError
		logging.ErrorWithContext(logger, "details fetch failed", logging.Error(err))
		return showResult{record: record}
	}
	if err := e.ensureEpisodes(ctx, item.show.ID); err != nil {
		record.Status = storage.ShowStatusError
		logging.ErrorWithContext(logger, "episodes fetch failed", logging.Error(err))
		return showResult{record: record}
	}

	skipped, err := e.pushUpdate(ctx, item, outcome.Show.TMDBID)
	if err != nil {
		record.Status = storage.ShowStatusError
		logging.ErrorWithContext(logger, "update push failed", logging.Error(err))
		return showResult{record: record}
	}

	record.Status = storage.ShowStatusResolved
	logger.Info("show synced",
		logging.Int64(logging.FieldShowID, item.show.ID),
		logging.Int64("tmdb_id", outcome.Show.TMDBID),
		logging.String("matched_via", outcome.MatchedVia),
		logging.Bool("skipped", skipped))
	return showResult{record: record, skipped: skipped}
}

func (e *Engine) ensureDetails(ctx context.Context, tmdbID int64) error {
	key := storage.DetailsKey(tmdbID)
	if _, ok, err := e.store.GetDetails(ctx, key); err != nil {
		return err
	} else if ok {
		return nil
	}
	details, err := e.provider.TVDetails(ctx, tmdbID)
	if err != nil {
		return err
	}
	return e.store.PutDetails(ctx, key, storage.DetailsValue{Show: storage.ShowMetadata{
		TMDBID:           details.ID,
		Name:             details.Name,
		OriginalName:     details.OriginalName,
		OriginalLanguage: details.OriginalLanguage,
		FirstAirDate:     details.FirstAirDate,
		Overview:         details.Overview,
		Popularity:       details.Popularity,
		VoteCount:        details.VoteCount,
	}})
}

func (e *Engine) ensureEpisodes(ctx context.Context, showID int64) error {
	key := storage.EpisodesKey(showID)
	if _, ok, err := e.store.GetEpisodes(ctx, key); err != nil {
		return err
	} else if ok {
		return nil
	}
	episodes, err := e.editor.Episodes(ctx, showID)
	if err != nil {
		return err
	}
	value := storage.EpisodesValue{Items: make([]storage.EpisodeRecord, 0, len(episodes))}
	for _, episode := range episodes {
		value.Items = append(value.Items, storage.EpisodeRecord{
			ID:      episode.ID,
			Name:    episode.Name,
			Season:  episode.Season,
			Episode: episode.Episode,
		})
	}
	return e.store.PutEpisodes(ctx, key, value)
}

// pushUpdate sends the metadata assignment unless an identical update was
// already acknowledged, in which case the show is skipped.
func (e *Engine) pushUpdate(ctx context.Context, item workItem, tmdbID int64) (bool, error) {
	key := storage.UpdateKey(item.show.ID, tmdbID, item.category.ID)
	if _, ok, err := e.store.GetUpdate(ctx, key); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}

	receipt, err := e.editor.PushUpdate(ctx, playlist.UpdateRequest{
		ShowID:     item.show.ID,
		TMDBID:     tmdbID,
		CategoryID: item.category.ID,
	})
	if err != nil {
		return false, err
	}
	if err := e.store.PutUpdate(ctx, key, storage.UpdateValue{
		ShowID:     item.show.ID,
		TMDBID:     tmdbID,
		CategoryID: item.category.ID,
		Status:     receipt.Status,
		Message:    receipt.Message,
	}); err != nil {
		return false, err
	}
	return false, nil
}

// Pending reports how many shows remain unprocessed without running a sync.
func (e *Engine) Pending(ctx context.Context) (int, error) {
	pending, err := e.loadWork(ctx, Options{})
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}
