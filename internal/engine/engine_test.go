package engine_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"showsync/internal/bootstrap"
	"showsync/internal/config"
	"showsync/internal/engine"
	"showsync/internal/logging"
	"showsync/internal/match"
	"showsync/internal/playlist"
	"showsync/internal/provider/tmdb"
	"showsync/internal/services"
	"showsync/internal/storage"
	"showsync/internal/testsupport"
)

type fakeProvider struct {
	results     map[string][]tmdb.Result
	searchCalls int
	detailCalls int
}

func (f *fakeProvider) SearchTV(ctx context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	f.searchCalls++
	results := f.results[query]
	return &tmdb.Response{Results: results, TotalResults: len(results)}, nil
}

func (f *fakeProvider) TVDetails(ctx context.Context, showID int64) (*tmdb.Result, error) {
	f.detailCalls++
	for _, results := range f.results {
		for _, result := range results {
			if result.ID == showID {
				return &result, nil
			}
		}
	}
	return nil, fmt.Errorf("show %d: %w", showID, services.ErrNotFound)
}

func (f *fakeProvider) SeasonEpisodes(ctx context.Context, showID int64, seasonNumber int) (*tmdb.SeasonDetails, error) {
	return &tmdb.SeasonDetails{SeasonNumber: seasonNumber}, nil
}

type fakeEditor struct {
	pushes       []playlist.UpdateRequest
	episodeCalls int
	pushErr      error
	onPush       func()
}

func (f *fakeEditor) ListCategories(ctx context.Context) ([]playlist.Category, error) {
	return nil, nil
}

func (f *fakeEditor) ListShows(ctx context.Context, categoryID int64) ([]playlist.Show, error) {
	return nil, nil
}

func (f *fakeEditor) Episodes(ctx context.Context, showID int64) ([]playlist.Episode, error) {
	f.episodeCalls++
	return []playlist.Episode{{ID: showID*100 + 1, Name: "Pilot", Season: 1, Episode: 1}}, nil
}

func (f *fakeEditor) PushUpdate(ctx context.Context, req playlist.UpdateRequest) (playlist.UpdateReceipt, error) {
	if f.pushErr != nil {
		return playlist.UpdateReceipt{}, f.pushErr
	}
	f.pushes = append(f.pushes, req)
	if f.onPush != nil {
		f.onPush()
	}
	return playlist.UpdateReceipt{Status: "ok"}, nil
}

type fixture struct {
	cfg      *config.Config
	store    *storage.Store
	provider *fakeProvider
	editor   *fakeEditor
	engine   *engine.Engine
}

func newFixture(t *testing.T, cfg *config.Config, categories []playlist.Category, shows []playlist.Show, results map[string][]tmdb.Result) *fixture {
	t.Helper()

	testsupport.WriteJSON(t, filepath.Join(cfg.Paths.DataDir, "categories.json"), map[string]any{"items": categories})
	testsupport.WriteJSON(t, filepath.Join(cfg.Paths.DataDir, "shows.json"), map[string]any{"items": shows})

	store := testsupport.MustOpenStore(t, cfg)
	provider := &fakeProvider{results: results}
	editor := &fakeEditor{}
	resolver := match.NewResolver(cfg, store, provider, match.NewAudit(cfg.Paths.AuditLog), logging.NewNop())
	source := bootstrap.NewSource(cfg, editor, logging.NewNop())

	return &fixture{
		cfg:      cfg,
		store:    store,
		provider: provider,
		editor:   editor,
		engine:   engine.New(cfg, store, resolver, provider, editor, source, logging.NewNop()),
	}
}

func dramaResults() map[string][]tmdb.Result {
	return map[string][]tmdb.Result{
		"Breaking Bad": {
			{ID: 1396, Name: "Breaking Bad", OriginalName: "Breaking Bad", OriginalLanguage: "en"},
		},
	}
}

func TestRunResolvesAndRecordsOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{
			{ID: 11, Name: "Breaking Bad", Category: 3},
			{ID: 12, Name: "مسلسل تجريبي", Category: 3},
		},
		dramaResults())
	ctx := context.Background()

	summary, err := fx.engine.Run(ctx, engine.Options{All: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 2 || summary.Succeeded != 1 || summary.NotFound != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if rate := summary.SuccessRate(); rate != 0.5 {
		t.Fatalf("expected success rate 0.5, got %v", rate)
	}

	if len(fx.editor.pushes) != 1 {
		t.Fatalf("expected one pushed update, got %d", len(fx.editor.pushes))
	}
	push := fx.editor.pushes[0]
	if push.ShowID != 11 || push.TMDBID != 1396 || push.CategoryID != 3 {
		t.Fatalf("unexpected update payload: %+v", push)
	}

	// The run warms the details, episodes, and update caches.
	if _, ok, err := fx.store.GetDetails(ctx, storage.DetailsKey(1396)); err != nil || !ok {
		t.Fatalf("expected cached details, ok=%v err=%v", ok, err)
	}
	if _, ok, err := fx.store.GetEpisodes(ctx, storage.EpisodesKey(11)); err != nil || !ok {
		t.Fatalf("expected cached episodes, ok=%v err=%v", ok, err)
	}
	if _, ok, err := fx.store.GetUpdate(ctx, storage.UpdateKey(11, 1396, 3)); err != nil || !ok {
		t.Fatalf("expected cached update receipt, ok=%v err=%v", ok, err)
	}

	records, err := fx.store.ShowRecords(ctx)
	if err != nil {
		t.Fatalf("ShowRecords returned error: %v", err)
	}
	statuses := make(map[int64]storage.ShowStatus, len(records))
	for _, record := range records {
		statuses[record.ShowID] = record.Status
	}
	if statuses[11] != storage.ShowStatusResolved || statuses[12] != storage.ShowStatusNotFound {
		t.Fatalf("unexpected record statuses: %v", statuses)
	}
}

func TestRunStopsOnCancellationAndResumesNextRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := dramaResults()
	results["Dark"] = []tmdb.Result{{ID: 70523, Name: "Dark", OriginalLanguage: "de"}}
	results["Fleabag"] = []tmdb.Result{{ID: 67070, Name: "Fleabag", OriginalLanguage: "en"}}
	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{
			{ID: 11, Name: "Breaking Bad", Category: 3},
			{ID: 12, Name: "Dark", Category: 3},
			{ID: 13, Name: "Fleabag", Category: 3},
		},
		results)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.editor.onPush = cancel

	summary, err := fx.engine.Run(ctx, engine.Options{All: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Processed != 1 || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary at cancellation: %+v", summary)
	}

	fx.editor.onPush = nil
	resumed, err := fx.engine.Run(context.Background(), engine.Options{All: true})
	if err != nil {
		t.Fatalf("resumed Run returned error: %v", err)
	}
	if resumed.Processed != 2 || resumed.Succeeded != 2 {
		t.Fatalf("unexpected resumed summary: %+v", resumed)
	}

	if len(fx.editor.pushes) != 3 {
		t.Fatalf("expected three pushed updates, got %d", len(fx.editor.pushes))
	}
	seen := make(map[int64]bool, len(fx.editor.pushes))
	for _, push := range fx.editor.pushes {
		if seen[push.ShowID] {
			t.Fatalf("show %d pushed more than once", push.ShowID)
		}
		seen[push.ShowID] = true
	}
}

func TestRunResumesFromCursor(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(2))
	results := dramaResults()
	results["Dark"] = []tmdb.Result{{ID: 70523, Name: "Dark", OriginalLanguage: "de"}}
	results["Fleabag"] = []tmdb.Result{{ID: 67070, Name: "Fleabag", OriginalLanguage: "en"}}
	results["Chernobyl"] = []tmdb.Result{{ID: 87108, Name: "Chernobyl", OriginalLanguage: "en"}}

	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}, {ID: 7, Name: "Comedy"}},
		[]playlist.Show{
			{ID: 11, Name: "Breaking Bad", Category: 3},
			{ID: 12, Name: "Dark", Category: 3},
			{ID: 13, Name: "Chernobyl", Category: 3},
			{ID: 31, Name: "Fleabag", Category: 7},
		},
		results)
	ctx := context.Background()

	first, err := fx.engine.Run(ctx, engine.Options{})
	if err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	if first.Processed != 2 || first.Remaining != 2 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	second, err := fx.engine.Run(ctx, engine.Options{})
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if second.Processed != 2 || second.Remaining != 0 {
		t.Fatalf("unexpected second summary: %+v", second)
	}

	third, err := fx.engine.Run(ctx, engine.Options{})
	if err != nil {
		t.Fatalf("third Run returned error: %v", err)
	}
	if third.Processed != 0 {
		t.Fatalf("expected nothing left to process, got %+v", third)
	}

	// Every show was pushed exactly once across the three runs.
	if len(fx.editor.pushes) != 4 {
		t.Fatalf("expected 4 pushed updates, got %d", len(fx.editor.pushes))
	}
	seen := make(map[int64]bool)
	for _, push := range fx.editor.pushes {
		if seen[push.ShowID] {
			t.Fatalf("show %d pushed twice", push.ShowID)
		}
		seen[push.ShowID] = true
	}
}

func TestRunSkipsShowsWithAcknowledgedUpdates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{{ID: 11, Name: "Breaking Bad", Category: 3}},
		dramaResults())
	ctx := context.Background()

	err := fx.store.PutUpdate(ctx, storage.UpdateKey(11, 1396, 3), storage.UpdateValue{
		ShowID: 11, TMDBID: 1396, CategoryID: 3, Status: "ok",
	})
	if err != nil {
		t.Fatalf("seed update receipt: %v", err)
	}

	summary, err := fx.engine.Run(ctx, engine.Options{All: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 1 {
		t.Fatalf("expected one skipped success, got %+v", summary)
	}
	if len(fx.editor.pushes) != 0 {
		t.Fatalf("expected no pushes, got %d", len(fx.editor.pushes))
	}
}

func TestRunRecordsPerShowFailuresAndContinues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := dramaResults()
	results["Dark"] = []tmdb.Result{{ID: 70523, Name: "Dark", OriginalLanguage: "de"}}
	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{
			{ID: 11, Name: "Breaking Bad", Category: 3},
			{ID: 12, Name: "Dark", Category: 3},
		},
		results)
	fx.editor.pushErr = fmt.Errorf("save rejected: %w", services.ErrTransient)
	ctx := context.Background()

	summary, err := fx.engine.Run(ctx, engine.Options{All: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 2 {
		t.Fatalf("expected both shows to fail, got %+v", summary)
	}

	// Failed shows still advance the cursor so the run terminates.
	cursors, err := fx.store.Cursors(ctx)
	if err != nil {
		t.Fatalf("Cursors returned error: %v", err)
	}
	if len(cursors) != 1 || cursors[0].Position != 2 {
		t.Fatalf("expected cursor at 2, got %+v", cursors)
	}

	// Reinitializing replays the shows; resolution now comes from the
	// search cache and pushes go through.
	fx.editor.pushErr = nil
	searchesBefore := fx.provider.searchCalls
	retry, err := fx.engine.Run(ctx, engine.Options{All: true, Reinitialize: true})
	if err != nil {
		t.Fatalf("retry Run returned error: %v", err)
	}
	if retry.Processed != 2 || retry.Succeeded != 2 {
		t.Fatalf("unexpected retry summary: %+v", retry)
	}
	if fx.provider.searchCalls != searchesBefore {
		t.Fatalf("expected cached resolutions, provider searched %d more times",
			fx.provider.searchCalls-searchesBefore)
	}
	if len(fx.editor.pushes) != 2 {
		t.Fatalf("expected 2 pushes after retry, got %d", len(fx.editor.pushes))
	}
}

func TestRunRejectsCorruptCursorUnlessReinitialized(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{{ID: 11, Name: "Breaking Bad", Category: 3}},
		dramaResults())
	ctx := context.Background()

	testsupport.ExecSQL(t, cfg,
		`INSERT INTO category_cursors (category_id, position, updated_at) VALUES (3, 50, '2026-01-01T00:00:00Z')`)

	if _, err := fx.engine.Run(ctx, engine.Options{All: true}); !errors.Is(err, services.ErrStateCorrupt) {
		t.Fatalf("expected state corruption error, got %v", err)
	}

	summary, err := fx.engine.Run(ctx, engine.Options{All: true, Reinitialize: true})
	if err != nil {
		t.Fatalf("reinitialized Run returned error: %v", err)
	}
	if summary.Processed != 1 || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary after reinit: %+v", summary)
	}
}

func TestRunFailsWhenLockIsHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fx := newFixture(t, cfg,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{{ID: 11, Name: "Breaking Bad", Category: 3}},
		dramaResults())

	lock := flock.New(cfg.Paths.RunLockFile)
	held, err := lock.TryLock()
	if err != nil || !held {
		t.Fatalf("acquire test lock: held=%v err=%v", held, err)
	}
	defer lock.Unlock()

	_, err = fx.engine.Run(context.Background(), engine.Options{All: true})
	if err == nil || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}
