// Package poolstate holds the in-memory mapping from provider family to its
// ordered list of entries, plus the round-robin indices the Selector
// advances. It is the "Pool State Store" leaf of the manager (SPEC_FULL.md
// §2.1).
package poolstate

import (
	"sync"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
)

// State is the shared, mutable pool. All exported methods are safe for
// concurrent use; callers must not assume the slices returned by Entries
// stay stable if entries are later added or removed (rebuilt only at
// process start in this implementation; see SPEC_FULL.md §3 Lifecycle).
type State struct {
	mu      sync.RWMutex
	entries map[family.Family][]*entry.Entry
	rrIndex map[string]int
}

func New() *State {
	return &State{
		entries: make(map[family.Family][]*entry.Entry),
		rrIndex: make(map[string]int),
	}
}

// SetFamily replaces the entry list for a family. Used at load time; the
// list's order is preserved as the stable tie-break order for selection.
func (s *State) SetFamily(f family.Family, entries []*entry.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[f] = entries
}

// Entries returns the family's entry list, or nil if the family is unknown.
// The returned slice is the live backing slice; callers must not mutate it.
func (s *State) Entries(f family.Family) []*entry.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[f]
}

// Families returns every family with at least a registered (possibly empty)
// entry list, in no particular order.
func (s *State) Families() []family.Family {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]family.Family, 0, len(s.entries))
	for f := range s.entries {
		out = append(out, f)
	}
	return out
}

// FindByUUID locates an entry by family and uuid.
func (s *State) FindByUUID(f family.Family, uuid string) *entry.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries[f] {
		if e.UUID == uuid {
			return e
		}
	}
	return nil
}

// NextIndex implements the round-robin cursor described in SPEC_FULL.md
// §4.1 step 6: the stored index is taken modulo n, that position is
// returned, and the stored index is advanced modulo n. key is either the
// family alone or "family:model"; callers keep the two independent by
// using different keys.
func (s *State) NextIndex(key string, n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.rrIndex[key] % n
	s.rrIndex[key] = (idx + 1) % n
	return idx
}
