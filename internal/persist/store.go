// Package persist implements the debounced, coalesced on-disk writer
// described in SPEC_FULL.md §4.6: rapid mutations across many families are
// coalesced into at most one flush per saveDebounceTime, and each flush
// patches only the families touched since the last one, leaving the rest of
// the document (including any human-added keys) untouched.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tidwall/sjson"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/pkg/log"
)

// Source is read by a flush to obtain the current entries for a family. The
// pool state store implements this.
type Source interface {
	Entries(f family.Family) []*entry.Entry
}

// Store coalesces ScheduleSave calls into debounced flushes to a single
// JSON document on disk.
type Store struct {
	path      string
	debounce  time.Duration
	source    Source
	logger    interface {
		Error(msg string, args ...any)
		Debug(msg string, args ...any)
	}

	mu      sync.Mutex
	pending map[family.Family]struct{}
	timer   *time.Timer
}

// New creates a Store. debounce defaults to 1s (SPEC_FULL.md §6) if zero.
func New(path string, debounce time.Duration, source Source) *Store {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Store{
		path:     path,
		debounce: debounce,
		source:   source,
		pending:  make(map[family.Family]struct{}),
		logger:   log.WithModule("persist"),
	}
}

// ScheduleSave marks family as dirty and (re)arms the single debounce timer.
// Non-blocking: the actual flush happens on the timer goroutine.
func (s *Store) ScheduleSave(f family.Family) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[f] = struct{}{}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

// Flush performs an immediate, synchronous save of every pending family. It
// is used for the shutdown-time final flush SPEC_FULL.md §5 calls for, and
// by tests that don't want to wait on the debounce timer.
func (s *Store) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.flush()
}

func (s *Store) flush() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	pending := s.pending
	s.pending = make(map[family.Family]struct{})
	s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		s.logger.Error("flush aborted: read failed", "error", err)
		// Put the families back so the next debounce retries.
		s.mu.Lock()
		for f := range pending {
			s.pending[f] = struct{}{}
		}
		s.mu.Unlock()
		return
	}

	for f := range pending {
		entries := s.source.Entries(f)
		body, err := json.Marshal(entries)
		if err != nil {
			s.logger.Error("flush: marshal entries failed", "family", f, "error", err)
			continue
		}
		doc, err = sjson.SetRawBytes(doc, string(f), body)
		if err != nil {
			s.logger.Error("flush: patch document failed", "family", f, "error", err)
			continue
		}
	}

	if err := s.writeAtomic(doc); err != nil {
		s.logger.Error("flush: write failed", "error", err)
		return
	}
	s.logger.Debug("flush complete", "families", len(pending))
}

// readDocument reads the on-disk document, treating a missing file as an
// empty one (§7 error taxonomy). Any other read error aborts the flush.
func (s *Store) readDocument() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte("{}"), nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}

// writeAtomic writes via temp-file + rename where the filesystem permits,
// falling back to a direct write if the directory can't host a temp file.
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".pool-*.json.tmp")
	if err != nil {
		return os.WriteFile(s.path, data, 0o644)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
