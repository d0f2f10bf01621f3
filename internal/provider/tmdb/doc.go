// Package tmdb provides access to the TMDB API for show searches, detail
// records, and season episode lists.
//
// Failures are tagged with the shared services sentinels so the engine can
// distinguish transient faults from malformed responses; an empty result list
// is not an error.
package tmdb
