// Package storage persists the lookup cache and batch-processing state in
// SQLite.
//
// The Store owns four independent cache namespaces (search, details,
// episodes, update) with upsert semantics, per-namespace hit/miss counters,
// and optional expiry on negative search entries. It also owns the
// processing state the batch engine resumes from: per-category cursors,
// per-show outcome records, and run totals, all advanced in a single
// transaction after every processed show.
//
// Treat this package as the single source of truth for persisted shapes;
// cache values are typed per namespace rather than free-form JSON blobs.
package storage
