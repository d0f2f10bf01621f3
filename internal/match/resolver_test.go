package match_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"showsync/internal/config"
	"showsync/internal/logging"
	"showsync/internal/match"
	"showsync/internal/provider/tmdb"
	"showsync/internal/services"
	"showsync/internal/storage"
	"showsync/internal/testsupport"
)

type fakeSearcher struct {
	calls   []searchCall
	results map[string][]tmdb.Result
	err     error
}

type searchCall struct {
	query string
	lang  string
}

func (f *fakeSearcher) SearchTV(ctx context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	f.calls = append(f.calls, searchCall{query: query, lang: opts.Language})
	if f.err != nil {
		return nil, f.err
	}
	results := f.results[query]
	return &tmdb.Response{Results: results, TotalResults: len(results)}, nil
}

func futureExpiry() time.Time {
	return time.Now().UTC().Add(time.Hour)
}

func newResolver(t *testing.T, cfg *config.Config, searcher tmdb.Searcher) (*match.Resolver, *storage.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	audit := match.NewAudit(cfg.Paths.AuditLog)
	return match.NewResolver(cfg, store, searcher, audit, logging.NewNop()), store
}

func TestResolveExactLatinMatchThenCacheHit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := &fakeSearcher{results: map[string][]tmdb.Result{
		"Breaking Bad": {
			{ID: 99, Name: "Breaking Bad Honduras", OriginalLanguage: "es"},
			{ID: 1396, Name: "Breaking Bad", OriginalName: "Breaking Bad", OriginalLanguage: "en"},
		},
	}}
	resolver, _ := newResolver(t, cfg, searcher)
	ctx := context.Background()

	outcome, err := resolver.Resolve(ctx, "  Breaking Bad ")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !outcome.Found || outcome.Show.TMDBID != 1396 {
		t.Fatalf("expected exact match on 1396, got %+v", outcome)
	}
	if outcome.MatchedVia != match.ViaExact {
		t.Fatalf("expected exact provenance, got %q", outcome.MatchedVia)
	}

	again, err := resolver.Resolve(ctx, "Breaking Bad")
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if !again.FromCache || again.MatchedVia != match.ViaCacheHit {
		t.Fatalf("expected cache hit, got %+v", again)
	}
	if len(searcher.calls) != 1 {
		t.Fatalf("expected a single provider search, got %d", len(searcher.calls))
	}
}

func TestResolveCachedNotFoundIsAuthoritative(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := &fakeSearcher{}
	resolver, store := newResolver(t, cfg, searcher)
	ctx := context.Background()

	err := store.PutSearch(ctx, storage.SearchKey("Ghost Show"), storage.SearchValue{
		Found:  false,
		Reason: match.ReasonNoResults,
	}, futureExpiry())
	if err != nil {
		t.Fatalf("seed not-found marker: %v", err)
	}

	outcome, err := resolver.Resolve(ctx, "Ghost Show")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Found || !outcome.FromCache || outcome.Reason != match.ReasonNoResults {
		t.Fatalf("expected cached not-found, got %+v", outcome)
	}
	if len(searcher.calls) != 0 {
		t.Fatalf("expected no provider searches, got %d", len(searcher.calls))
	}
}

func TestResolveArabicTitleSearchesTransliteratedForm(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := &fakeSearcher{results: map[string][]tmdb.Result{
		"mslsl tjryby": {
			{ID: 501, Name: "Mslsl Tjryby", OriginalName: "مسلسل تجريبي", OriginalLanguage: "ar"},
		},
	}}
	resolver, _ := newResolver(t, cfg, searcher)

	outcome, err := resolver.Resolve(context.Background(), "مسلسل تجريبي")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !outcome.Found || outcome.Show.TMDBID != 501 {
		t.Fatalf("expected match on 501, got %+v", outcome)
	}
	if outcome.MatchedVia != match.ViaTransliteration {
		t.Fatalf("expected transliteration provenance, got %q", outcome.MatchedVia)
	}
	if outcome.TransliteratedForm != "mslsl tjryby" {
		t.Fatalf("unexpected transliterated form %q", outcome.TransliteratedForm)
	}
	if len(searcher.calls) != 1 {
		t.Fatalf("expected a single search of the transliterated form, got %+v", searcher.calls)
	}
	if searcher.calls[0].query != "mslsl tjryby" || searcher.calls[0].lang != "ar" {
		t.Fatalf("unexpected search call %+v", searcher.calls[0])
	}
}

func TestResolveArabicNoResultsWritesAudit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := &fakeSearcher{}
	resolver, _ := newResolver(t, cfg, searcher)

	ctx := services.WithRunID(context.Background(), "run-123")
	ctx = services.WithCategoryID(ctx, 3)

	outcome, err := resolver.Resolve(ctx, "مسلسل تجريبي")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Found || outcome.Reason != match.ReasonNoTransliteratedHits {
		t.Fatalf("expected transliteration-fallback not-found, got %+v", outcome)
	}

	file, err := os.Open(cfg.Paths.AuditLog)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatal("expected one audit line")
	}
	var entry match.AuditEntry
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("parse audit line: %v", err)
	}
	if entry.Title != "مسلسل تجريبي" || entry.CategoryID != 3 || entry.RunID != "run-123" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
	if entry.Reason != match.ReasonNoTransliteratedHits || entry.TransliteratedForm == "" {
		t.Fatalf("audit entry missing fallback context: %+v", entry)
	}
	if entry.Script != "Arabic" {
		t.Fatalf("audit entry missing detected script, got %q", entry.Script)
	}
}

func TestResolveLanguageFallbackTieBreak(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := &fakeSearcher{results: map[string][]tmdb.Result{
		"Dark": {
			{ID: 1, Name: "Dark Matter", OriginalLanguage: "fr"},
			{ID: 2, Name: "Dark Shadows", OriginalLanguage: "en-US"},
		},
	}}
	resolver, _ := newResolver(t, cfg, searcher)

	outcome, err := resolver.Resolve(context.Background(), "Dark")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !outcome.Found || outcome.Show.TMDBID != 2 {
		t.Fatalf("expected language fallback on 2, got %+v", outcome)
	}
	if outcome.MatchedVia != match.ViaLanguageFallback {
		t.Fatalf("expected language_fallback provenance, got %q", outcome.MatchedVia)
	}
}

func TestResolveFirstResultPolicy(t *testing.T) {
	results := map[string][]tmdb.Result{
		"Dark": {
			{ID: 1, Name: "Dark Matter", OriginalLanguage: "fr"},
			{ID: 2, Name: "Dark Shadows", OriginalLanguage: "de"},
		},
	}

	strict, _ := newResolver(t, testsupport.NewConfig(t), &fakeSearcher{results: results})
	outcome, err := strict.Resolve(context.Background(), "Dark")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Found || outcome.Reason != match.ReasonNoCandidateMatched {
		t.Fatalf("expected strict policy rejection, got %+v", outcome)
	}

	lenient, _ := newResolver(t,
		testsupport.NewConfig(t, testsupport.WithFallbackFirstResult()),
		&fakeSearcher{results: results})
	outcome, err = lenient.Resolve(context.Background(), "Dark")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !outcome.Found || outcome.Show.TMDBID != 1 || outcome.MatchedVia != match.ViaFirstResult {
		t.Fatalf("expected first-result match on 1, got %+v", outcome)
	}
}

func TestResolveProviderErrorIsNotCached(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := &fakeSearcher{err: services.ErrTransient}
	resolver, store := newResolver(t, cfg, searcher)
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, "Flaky Show"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, ok, err := store.GetSearch(ctx, storage.SearchKey("Flaky Show")); err != nil || ok {
		t.Fatalf("expected no cached entry after error, ok=%v err=%v", ok, err)
	}

	// The next attempt reaches the provider again.
	searcher.err = nil
	if _, err := resolver.Resolve(ctx, "Flaky Show"); err != nil {
		t.Fatalf("retry Resolve returned error: %v", err)
	}
	if len(searcher.calls) != 2 {
		t.Fatalf("expected 2 provider searches, got %d", len(searcher.calls))
	}
}

func TestResolveRejectsEmptyTitle(t *testing.T) {
	resolver, _ := newResolver(t, testsupport.NewConfig(t), &fakeSearcher{})
	if _, err := resolver.Resolve(context.Background(), "   "); !errors.Is(err, services.ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
