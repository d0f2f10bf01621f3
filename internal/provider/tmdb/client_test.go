package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"showsync/internal/provider/tmdb"
	"showsync/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := tmdb.New("test-key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("tmdb.New: %v", err)
	}
	return client
}

func TestSearchTVDecodesResults(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "Breaking Bad" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1396,"name":"Breaking Bad","original_name":"Breaking Bad","original_language":"en","first_air_date":"2008-01-20"}],"total_results":1,"total_pages":1}`))
	})

	resp, err := client.SearchTV(context.Background(), "Breaking Bad", tmdb.SearchOptions{})
	if err != nil {
		t.Fatalf("SearchTV failed: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 1396 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSearchTVLanguageOverride(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("language"); got != "ar" {
			t.Errorf("language = %q, want request-level override", got)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	resp, err := client.SearchTV(context.Background(), "مسلسل", tmdb.SearchOptions{Language: "ar"})
	if err != nil {
		t.Fatalf("SearchTV failed: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected empty results, got %+v", resp.Results)
	}
}

func TestSearchTVServerErrorIsTransient(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SearchTV(context.Background(), "anything", tmdb.SearchOptions{})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error %v is not tagged transient", err)
	}
}

func TestSearchTVBadBodyIsMalformed(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": not-json`))
	})

	_, err := client.SearchTV(context.Background(), "anything", tmdb.SearchOptions{})
	if !errors.Is(err, services.ErrMalformed) {
		t.Fatalf("error %v is not tagged malformed", err)
	}
}

func TestTVDetailsNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.TVDetails(context.Background(), 99)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error %v is not tagged not-found", err)
	}
}

func TestSeasonEpisodes(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1396/season/1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":3572,"season_number":1,"episodes":[{"id":62085,"name":"Pilot","season_number":1,"episode_number":1}]}`))
	})

	season, err := client.SeasonEpisodes(context.Background(), 1396, 1)
	if err != nil {
		t.Fatalf("SeasonEpisodes failed: %v", err)
	}
	if len(season.Episodes) != 1 || season.Episodes[0].Name != "Pilot" {
		t.Fatalf("unexpected season: %+v", season)
	}
}
