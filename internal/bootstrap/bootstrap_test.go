package bootstrap_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"showsync/internal/bootstrap"
	"showsync/internal/logging"
	"showsync/internal/playlist"
	"showsync/internal/services"
	"showsync/internal/testsupport"
)

type fakeEditor struct {
	categories []playlist.Category
	shows      []playlist.Show
}

func (f *fakeEditor) ListCategories(ctx context.Context) ([]playlist.Category, error) {
	return f.categories, nil
}

func (f *fakeEditor) ListShows(ctx context.Context, categoryID int64) ([]playlist.Show, error) {
	return f.shows, nil
}

func (f *fakeEditor) Episodes(ctx context.Context, showID int64) ([]playlist.Episode, error) {
	return nil, nil
}

func (f *fakeEditor) PushUpdate(ctx context.Context, req playlist.UpdateRequest) (playlist.UpdateReceipt, error) {
	return playlist.UpdateReceipt{Status: "ok"}, nil
}

func writeSnapshot(t *testing.T, dir string, categories []playlist.Category, shows []playlist.Show) {
	t.Helper()
	testsupport.WriteJSON(t, filepath.Join(dir, "categories.json"), map[string]any{"items": categories})
	testsupport.WriteJSON(t, filepath.Join(dir, "shows.json"), map[string]any{"items": shows})
}

func TestSourceLoadGroupsAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeSnapshot(t, cfg.Paths.DataDir,
		[]playlist.Category{{ID: 7, Name: "Comedy"}, {ID: 3, Name: "Drama"}},
		[]playlist.Show{
			{ID: 21, Name: "Dark", Category: 3},
			{ID: 31, Name: "Fleabag", Category: 7},
			{ID: 22, Name: "Breaking Bad", Category: 3},
		})

	snapshot, err := bootstrap.NewSource(cfg, nil, logging.NewNop()).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(snapshot.Categories) != 2 || snapshot.Categories[0].ID != 3 || snapshot.Categories[1].ID != 7 {
		t.Fatalf("expected categories ordered by ID, got %+v", snapshot.Categories)
	}
	drama := snapshot.Shows(3)
	if len(drama) != 2 || drama[0].Name != "Dark" || drama[1].Name != "Breaking Bad" {
		t.Fatalf("expected drama shows in file order, got %+v", drama)
	}
	if snapshot.ShowCount() != 3 {
		t.Fatalf("expected 3 shows, got %d", snapshot.ShowCount())
	}
}

func TestSourceLoadSkipsOrphanedShows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeSnapshot(t, cfg.Paths.DataDir,
		[]playlist.Category{{ID: 3, Name: "Drama"}},
		[]playlist.Show{
			{ID: 21, Name: "Dark", Category: 3},
			{ID: 99, Name: "Stray", Category: 42},
		})

	snapshot, err := bootstrap.NewSource(cfg, nil, logging.NewNop()).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if snapshot.ShowCount() != 1 {
		t.Fatalf("expected orphaned show skipped, got %d shows", snapshot.ShowCount())
	}
}

func TestSourceLoadMissingFilesIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	_, err := bootstrap.NewSource(cfg, nil, logging.NewNop()).Load()
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSourceLoadCorruptFileIsStateError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DataDir, "categories.json"), []byte("{broken"))
	testsupport.WriteJSON(t, filepath.Join(cfg.Paths.DataDir, "shows.json"), map[string]any{"items": []playlist.Show{}})

	_, err := bootstrap.NewSource(cfg, nil, logging.NewNop()).Load()
	if !errors.Is(err, services.ErrStateCorrupt) {
		t.Fatalf("expected state corruption error, got %v", err)
	}
}

func TestSourceRefreshWritesSnapshotFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	editor := &fakeEditor{
		categories: []playlist.Category{{ID: 3, Name: "Drama"}},
		shows:      []playlist.Show{{ID: 21, Name: "Dark", Category: 3}},
	}

	source := bootstrap.NewSource(cfg, editor, logging.NewNop())
	snapshot, err := source.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if snapshot.ShowCount() != 1 {
		t.Fatalf("expected refreshed snapshot with 1 show, got %d", snapshot.ShowCount())
	}

	// A subsequent plain Load must see the refreshed files.
	reloaded, err := source.Load()
	if err != nil {
		t.Fatalf("Load after refresh returned error: %v", err)
	}
	if len(reloaded.Categories) != 1 || reloaded.Categories[0].Name != "Drama" {
		t.Fatalf("unexpected reloaded categories: %+v", reloaded.Categories)
	}
}
