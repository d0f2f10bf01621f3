// Package engine orchestrates sync runs: it loads the bootstrap snapshot and
// resume cursors, selects the next batch of unprocessed shows, resolves each
// title, fetches details and episodes through the caches, pushes updates to
// the playlist service, and commits progress after every show so an
// interrupted run picks up exactly where it stopped.
package engine
