package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"showsync/internal/services"
)

func (s *Store) recordHit(ns Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.counters[ns]; ok {
		st.Hits++
	}
}

func (s *Store) recordMiss(ns Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.counters[ns]; ok {
		st.Misses++
	}
}

// Stats returns a snapshot of the process-wide hit/miss counters per namespace.
func (s *Store) Stats() map[Namespace]Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[Namespace]Stats, len(s.counters))
	for ns, st := range s.counters {
		snapshot[ns] = *st
	}
	return snapshot
}

// get fetches a raw cache value, counting a hit or miss. Expired entries
// count as misses and are left in place for PruneExpired.
func (s *Store) get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT value, expires_at FROM cache_entries WHERE namespace = ? AND key = ?`,
		string(ns), key,
	)
	var (
		value     string
		expiresAt sql.NullString
	)
	err := row.Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.recordMiss(ns)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	if expiresAt.Valid && strings.TrimSpace(expiresAt.String) != "" {
		deadline, parseErr := time.Parse(time.RFC3339Nano, expiresAt.String)
		if parseErr != nil {
			return nil, false, services.Wrap(services.ErrStateCorrupt, "storage", "get", "parse cache expiry", parseErr)
		}
		if !deadline.After(time.Now().UTC()) {
			s.recordMiss(ns)
			return nil, false, nil
		}
	}
	s.recordHit(ns)
	return []byte(value), true, nil
}

// put upserts a raw cache value. Overwrites refresh updated_at and expires_at
// while preserving created_at.
func (s *Store) put(ctx context.Context, ns Namespace, key string, value []byte, expiresAt time.Time) error {
	now := time.Now().UTC().Format(timeLayout)
	var expiry any
	if !expiresAt.IsZero() {
		expiry = expiresAt.UTC().Format(timeLayout)
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO cache_entries (namespace, key, value, created_at, updated_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(namespace, key) DO UPDATE SET
             value = excluded.value,
             updated_at = excluded.updated_at,
             expires_at = excluded.expires_at`,
		string(ns), key, string(value), now, now, expiry,
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, ns Namespace, key string, out any) (bool, error) {
	raw, ok, err := s.get(ctx, ns, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, services.Wrap(services.ErrStateCorrupt, "storage", "get", fmt.Sprintf("decode %s cache value for key %q", ns, key), err)
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, ns Namespace, key string, value any, expiresAt time.Time) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s cache value: %w", ns, err)
	}
	return s.put(ctx, ns, key, raw, expiresAt)
}

// GetSearch returns the cached search outcome for a title key, if present.
func (s *Store) GetSearch(ctx context.Context, key string) (SearchValue, bool, error) {
	var value SearchValue
	ok, err := s.getJSON(ctx, NamespaceSearch, key, &value)
	return value, ok, err
}

// PutSearch stores a search outcome. A zero expiresAt means the entry never
// expires; not-found entries normally carry a TTL so the title is eventually
// re-resolved.
func (s *Store) PutSearch(ctx context.Context, key string, value SearchValue, expiresAt time.Time) error {
	return s.putJSON(ctx, NamespaceSearch, key, value, expiresAt)
}

// GetDetails returns the cached detail record for a provider id, if present.
func (s *Store) GetDetails(ctx context.Context, key string) (DetailsValue, bool, error) {
	var value DetailsValue
	ok, err := s.getJSON(ctx, NamespaceDetails, key, &value)
	return value, ok, err
}

// PutDetails stores a detail record.
func (s *Store) PutDetails(ctx context.Context, key string, value DetailsValue) error {
	return s.putJSON(ctx, NamespaceDetails, key, value, time.Time{})
}

// GetEpisodes returns the cached episode list for a show, if present.
func (s *Store) GetEpisodes(ctx context.Context, key string) (EpisodesValue, bool, error) {
	var value EpisodesValue
	ok, err := s.getJSON(ctx, NamespaceEpisodes, key, &value)
	return value, ok, err
}

// PutEpisodes stores an episode list.
func (s *Store) PutEpisodes(ctx context.Context, key string, value EpisodesValue) error {
	return s.putJSON(ctx, NamespaceEpisodes, key, value, time.Time{})
}

// GetUpdate returns the cached update receipt for a composite key, if present.
func (s *Store) GetUpdate(ctx context.Context, key string) (UpdateValue, bool, error) {
	var value UpdateValue
	ok, err := s.getJSON(ctx, NamespaceUpdate, key, &value)
	return value, ok, err
}

// PutUpdate stores an update receipt.
func (s *Store) PutUpdate(ctx context.Context, key string, value UpdateValue) error {
	return s.putJSON(ctx, NamespaceUpdate, key, value, time.Time{})
}

// Keys lists every key in a namespace in insertion-time order.
func (s *Store) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key FROM cache_entries WHERE namespace = ? ORDER BY created_at, key`,
		string(ns),
	)
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan cache key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache keys: %w", err)
	}
	return keys, nil
}

// ClearCache deletes cache entries. An empty namespace clears all namespaces.
// It is the explicit cache-reset path; nothing else deletes entries.
func (s *Store) ClearCache(ctx context.Context, ns Namespace) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if ns == "" {
		res, err = s.execWithRetry(ctx, `DELETE FROM cache_entries`)
	} else {
		res, err = s.execWithRetry(ctx, `DELETE FROM cache_entries WHERE namespace = ?`, string(ns))
	}
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// PruneExpired deletes cache entries whose expiry has passed.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("prune expired entries: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// CacheCounts returns the number of stored entries per namespace.
func (s *Store) CacheCounts(ctx context.Context) (map[Namespace]int64, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT namespace, COUNT(1) FROM cache_entries GROUP BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("count cache entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[Namespace]int64, 4)
	for rows.Next() {
		var (
			ns    string
			count int64
		)
		if err := rows.Scan(&ns, &count); err != nil {
			return nil, fmt.Errorf("scan cache count: %w", err)
		}
		counts[Namespace(ns)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache counts: %w", err)
	}
	return counts, nil
}
