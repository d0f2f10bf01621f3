package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showsync/internal/config"
	"showsync/internal/language"
	"showsync/internal/logging"
	"showsync/internal/provider/tmdb"
	"showsync/internal/services"
	"showsync/internal/storage"
	"showsync/internal/translit"
)

// Match provenance values recorded on resolved outcomes.
const (
	ViaExact            = "exact"
	ViaLanguageFallback = "language_fallback"
	ViaFirstResult      = "first_result"
	ViaTransliteration  = "transliteration"
	ViaCacheHit         = "cache_hit"
)

// Not-found reasons, also persisted on cached not-found markers.
const (
	ReasonNoResults            = "no results"
	ReasonNoTransliteratedHits = "no results after transliteration fallback"
	ReasonNoCandidateMatched   = "no candidate matched title or language"
)

// Outcome is the result of resolving one title.
type Outcome struct {
	Found              bool
	Show               *storage.ShowMetadata
	MatchedVia         string
	Reason             string
	LanguageHint       string
	TransliteratedForm string
	FromCache          bool
}

// Resolver maps show titles to provider metadata through the search cache.
type Resolver struct {
	store               *storage.Store
	search              tmdb.Searcher
	audit               *Audit
	logger              *slog.Logger
	fallbackFirstResult bool
	notFoundTTL         time.Duration
	mixedPercent        int
}

// NewResolver builds a resolver wired to the cache store and search backend.
func NewResolver(cfg *config.Config, store *storage.Store, search tmdb.Searcher, audit *Audit, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		store:               store,
		search:              search,
		audit:               audit,
		logger:              logging.NewComponentLogger(logger, "match"),
		fallbackFirstResult: cfg.Sync.FallbackFirstResult,
		notFoundTTL:         time.Duration(cfg.Sync.NotFoundTTLHours) * time.Hour,
		mixedPercent:        cfg.Sync.MixedScriptPercent,
	}
}

// Resolve returns the match outcome for a title. Cache entries, including
// unexpired not-found markers, are authoritative; provider errors propagate
// without being cached so the next run retries.
func (r *Resolver) Resolve(ctx context.Context, title string) (Outcome, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return Outcome{}, services.Wrap(services.ErrMalformed, "match", "resolve", "empty title", nil)
	}

	key := storage.SearchKey(trimmed)
	if cached, ok, err := r.store.GetSearch(ctx, key); err != nil {
		return Outcome{}, err
	} else if ok {
		outcome := Outcome{
			Found:              cached.Found,
			Show:               cached.Show,
			Reason:             cached.Reason,
			LanguageHint:       cached.LanguageHint,
			TransliteratedForm: cached.TransliteratedForm,
			MatchedVia:         cached.MatchedVia,
			FromCache:          true,
		}
		if cached.Found {
			outcome.MatchedVia = ViaCacheHit
		}
		return outcome, nil
	}

	cls := language.ClassifyWithThreshold(trimmed, r.mixedPercent)
	outcome, err := r.resolveFresh(ctx, trimmed, cls)
	if err != nil {
		return Outcome{}, err
	}

	value := storage.SearchValue{
		Found:              outcome.Found,
		Reason:             outcome.Reason,
		MatchedVia:         outcome.MatchedVia,
		LanguageHint:       outcome.LanguageHint,
		TransliteratedForm: outcome.TransliteratedForm,
		Show:               outcome.Show,
	}
	expiresAt := time.Time{}
	if !outcome.Found && r.notFoundTTL > 0 {
		expiresAt = time.Now().UTC().Add(r.notFoundTTL)
	}
	if err := r.store.PutSearch(ctx, key, value, expiresAt); err != nil {
		return Outcome{}, err
	}

	if !outcome.Found {
		categoryID, _ := services.CategoryIDFromContext(ctx)
		runID, _ := services.RunIDFromContext(ctx)
		if err := r.audit.Record(AuditEntry{
			Title:              trimmed,
			CategoryID:         categoryID,
			Script:             cls.ScriptName,
			TransliteratedForm: outcome.TransliteratedForm,
			Reason:             outcome.Reason,
			RunID:              runID,
		}); err != nil {
			r.logger.Warn("audit log write failed",
				logging.String(logging.FieldShowTitle, trimmed),
				logging.Error(err))
		}
	}

	return outcome, nil
}

// resolveFresh performs the provider searches for a cache miss.
func (r *Resolver) resolveFresh(ctx context.Context, title string, cls language.Classification) (Outcome, error) {
	outcome := Outcome{LanguageHint: cls.Hint}

	query := title
	transliterated := false
	if cls.Primary == language.ScriptNonLatin || cls.Mixed {
		// Non-Latin and mixed-script titles go straight to the
		// transliterated form; the provider's search index does not
		// handle the raw script reliably.
		query = translit.Transliterate(title)
		outcome.TransliteratedForm = query
		transliterated = true
	}

	results, err := r.searchTV(ctx, query, cls.Hint)
	if err != nil {
		return Outcome{}, err
	}

	if len(results) == 0 && !transliterated {
		// Latin searches get one transliteration retry, but only when
		// the form actually differs from what was already searched.
		form := translit.Transliterate(title)
		if form != query {
			outcome.TransliteratedForm = form
			transliterated = true
			query = form
			if results, err = r.searchTV(ctx, query, cls.Hint); err != nil {
				return Outcome{}, err
			}
		}
	}

	if len(results) == 0 {
		outcome.Reason = ReasonNoResults
		if transliterated {
			outcome.Reason = ReasonNoTransliteratedHits
		}
		r.logger.Info("no provider results",
			logging.String(logging.FieldShowTitle, title),
			logging.String("script", cls.ScriptName),
			logging.String("reason", outcome.Reason))
		return outcome, nil
	}

	show, via, matched := selectCandidate(query, cls.Hint, results, r.fallbackFirstResult)
	if !matched {
		outcome.Reason = ReasonNoCandidateMatched
		return outcome, nil
	}
	if transliterated {
		via = ViaTransliteration
	}
	outcome.Found = true
	outcome.Show = show
	outcome.MatchedVia = via
	r.logger.Debug("resolved title",
		logging.String(logging.FieldShowTitle, title),
		logging.Int64(logging.FieldShowID, show.TMDBID),
		logging.String("matched_via", via))
	return outcome, nil
}

func (r *Resolver) searchTV(ctx context.Context, query, hint string) ([]tmdb.Result, error) {
	resp, err := r.search.SearchTV(ctx, query, tmdb.SearchOptions{Language: hint})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return resp.Results, nil
}

// selectCandidate applies the match policy to a non-empty result list:
// exact case-insensitive title equality wins, then original-language
// agreement with the script hint, then optionally the first result.
func selectCandidate(query, hint string, results []tmdb.Result, fallbackFirst bool) (*storage.ShowMetadata, string, bool) {
	for _, result := range results {
		if strings.EqualFold(result.Name, query) || strings.EqualFold(result.OriginalName, query) {
			return toMetadata(result), ViaExact, true
		}
	}
	if hint != "" {
		for _, result := range results {
			if language.BaseCode(result.OriginalLanguage) == hint {
				return toMetadata(result), ViaLanguageFallback, true
			}
		}
	}
	if fallbackFirst {
		return toMetadata(results[0]), ViaFirstResult, true
	}
	return nil, "", false
}

func toMetadata(result tmdb.Result) *storage.ShowMetadata {
	return &storage.ShowMetadata{
		TMDBID:           result.ID,
		Name:             result.Name,
		OriginalName:     result.OriginalName,
		OriginalLanguage: result.OriginalLanguage,
		FirstAirDate:     result.FirstAirDate,
		Overview:         result.Overview,
		Popularity:       result.Popularity,
		VoteCount:        result.VoteCount,
	}
}
