package storage

import (
	"fmt"
	"strconv"
	"time"
)

// Namespace identifies an isolated key space within the cache.
type Namespace string

const (
	NamespaceSearch   Namespace = "search"
	NamespaceDetails  Namespace = "details"
	NamespaceEpisodes Namespace = "episodes"
	NamespaceUpdate   Namespace = "update"
)

// Namespaces lists every cache namespace in stable order.
func Namespaces() []Namespace {
	return []Namespace{NamespaceSearch, NamespaceDetails, NamespaceEpisodes, NamespaceUpdate}
}

// Stats reports hit/miss counters for one namespace.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns the hit fraction, or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ShowMetadata is the canonical provider record a title resolves to.
type ShowMetadata struct {
	TMDBID           int64   `json:"tmdb_id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	OriginalLanguage string  `json:"original_language"`
	FirstAirDate     string  `json:"first_air_date"`
	Overview         string  `json:"overview"`
	Popularity       float64 `json:"popularity"`
	VoteCount        int64   `json:"vote_count"`
}

// SearchValue is the search-namespace payload. Found distinguishes a resolved
// match from a definitive not-found; a stored entry with Found=false is the
// not-found marker and carries the reason for later auditing.
type SearchValue struct {
	Found              bool          `json:"found"`
	Reason             string        `json:"reason,omitempty"`
	MatchedVia         string        `json:"matched_via,omitempty"`
	LanguageHint       string        `json:"language_hint,omitempty"`
	TransliteratedForm string        `json:"transliterated_form,omitempty"`
	Show               *ShowMetadata `json:"show,omitempty"`
}

// DetailsValue is the details-namespace payload.
type DetailsValue struct {
	Show ShowMetadata `json:"show"`
}

// EpisodeRecord is a single episode entry as cached from the playlist service.
type EpisodeRecord struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// EpisodesValue is the episodes-namespace payload.
type EpisodesValue struct {
	Items []EpisodeRecord `json:"items"`
}

// UpdateValue is the update-namespace payload: the receipt of a pushed update.
type UpdateValue struct {
	ShowID     int64  `json:"show_id"`
	TMDBID     int64  `json:"tmdb_id"`
	CategoryID int64  `json:"category_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// SearchKey derives the search cache key from a show title.
func SearchKey(title string) string {
	return title
}

// DetailsKey derives the details cache key from a provider id.
func DetailsKey(tmdbID int64) string {
	return strconv.FormatInt(tmdbID, 10)
}

// EpisodesKey derives the episodes cache key from a playlist show id.
func EpisodesKey(showID int64) string {
	return strconv.FormatInt(showID, 10)
}

// UpdateKey derives the update cache key from the full update identity.
func UpdateKey(showID, tmdbID, categoryID int64) string {
	return fmt.Sprintf("%d:%d:%d", showID, tmdbID, categoryID)
}

// ShowStatus represents the resolution outcome persisted per show.
type ShowStatus string

const (
	ShowStatusPending  ShowStatus = "pending"
	ShowStatusResolved ShowStatus = "resolved"
	ShowStatusNotFound ShowStatus = "not_found"
	ShowStatusError    ShowStatus = "error"
)

var showStatusSet = map[ShowStatus]struct{}{
	ShowStatusPending:  {},
	ShowStatusResolved: {},
	ShowStatusNotFound: {},
	ShowStatusError:    {},
}

// Valid reports whether the status is a known value.
func (s ShowStatus) Valid() bool {
	_, ok := showStatusSet[s]
	return ok
}

// ShowRecord captures the outcome for one (category, show) pair.
type ShowRecord struct {
	CategoryID int64
	ShowID     int64
	Title      string
	TMDBID     int64
	Status     ShowStatus
	UpdatedAt  time.Time
}

// Cursor is the per-category progress pointer: the number of shows in the
// category's stable order that have been fully processed.
type Cursor struct {
	CategoryID int64
	Position   int64
	UpdatedAt  time.Time
}

// RunTotals aggregates outcome counts across all runs against this database.
type RunTotals struct {
	Processed int64
	Succeeded int64
	NotFound  int64
	Failed    int64
	LastRunAt time.Time
}
