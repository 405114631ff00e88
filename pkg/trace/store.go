// Package trace is the audit channel of the kernel: an append-only JSONL
// stream of structured events, one canonical line per event, owned by a
// single run. Concurrent runs must use distinct paths.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pikoninc/nucleus/core/pkg/canonical"
	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

// Store appends trace events to a JSONL file. Lines are RFC 8785 canonical
// JSON, so field order is stable across runs and platforms. Past lines are
// never rewritten.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for path. The file is created lazily on the
// first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the JSONL file path.
func (s *Store) Path() string { return s.path }

// Append writes one event as a single canonical JSON line. The parent
// directory is created if missing and the file is opened in append mode, so
// an interrupted run leaves a consistent prefix.
func (s *Store) Append(ev contracts.TraceEvent) error {
	line, err := canonical.JSON(ev)
	if err != nil {
		return fmt.Errorf("trace: encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("trace: create trace dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("trace: open trace file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("trace: append event: %w", err)
	}
	return nil
}
