package match

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEntry is one line of the not-found audit log.
type AuditEntry struct {
	Title              string    `json:"title"`
	CategoryID         int64     `json:"category_id"`
	Script             string    `json:"script,omitempty"`
	TransliteratedForm string    `json:"transliterated_form,omitempty"`
	Reason             string    `json:"reason"`
	RunID              string    `json:"run_id,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// Audit appends not-found outcomes to a JSON-lines file so operators can
// review unresolved titles without trawling the cache.
type Audit struct {
	path string
	mu   sync.Mutex
}

// NewAudit creates an audit log writer. An empty path disables auditing.
func NewAudit(path string) *Audit {
	return &Audit{path: path}
}

// Record appends one entry. The timestamp is filled in when unset.
func (a *Audit) Record(entry AuditEntry) error {
	if a == nil || a.path == "" {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
