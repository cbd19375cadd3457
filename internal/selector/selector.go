// Package selector implements the Selector component (SPEC_FULL.md §4.1):
// health-preferring, model-filtered, per-(family,model) round-robin
// selection, plus the recovery-trigger sweep that asynchronously kicks off
// probes for entries whose cool-down has elapsed.
package selector

import (
	"time"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/poolerr"
	"github.com/oakhollow/providerpool/internal/poolstate"
	"github.com/oakhollow/providerpool/pkg/log"
)

// ErrNoCandidates is returned when a family is absent/empty, or every
// enabled entry is filtered out by the requested model.
var ErrNoCandidates = poolerr.ErrNoCandidates

// ErrInvalidFamily is returned for an empty family argument.
var ErrInvalidFamily = poolerr.ErrInvalidFamily

// Recovery is dispatched asynchronously when an unhealthy entry's cool-down
// has elapsed. The Selector never awaits it.
type Recovery interface {
	Trigger(f family.Family, e *entry.Entry)
}

// Options configures a single Select call.
type Options struct {
	// SkipUsageCount suppresses the lastUsed/usageCount bump, per §4.1 step 7.
	SkipUsageCount bool
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Selector ties the pool state, persistence scheduler, and recovery
// dispatcher together to implement Select.
type Selector struct {
	State               *poolstate.State
	Store               *persist.Store
	Recovery            Recovery
	HealthCheckInterval time.Duration
	Now                 Clock
}

func (s *Selector) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Select implements the algorithm in §4.1. requestedModel is nil when the
// caller has no model preference.
func (s *Selector) Select(f family.Family, requestedModel *string, opts Options) (*entry.Entry, error) {
	if f == "" {
		log.WithModule("selector").Error("select called with empty family")
		return nil, ErrInvalidFamily
	}

	all := s.State.Entries(f)
	if len(all) == 0 {
		return nil, ErrNoCandidates
	}

	enabled := make([]*entry.Entry, 0, len(all))
	for _, e := range all {
		if !e.IsDisabled() {
			enabled = append(enabled, e)
		}
	}
	if len(enabled) == 0 {
		return nil, ErrNoCandidates
	}

	filtered := enabled
	if requestedModel != nil {
		filtered = make([]*entry.Entry, 0, len(enabled))
		for _, e := range enabled {
			if e.SupportsModel(*requestedModel) {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			return nil, ErrNoCandidates
		}
	}

	s.triggerRecoveries(f, filtered)

	candidates := healthyOnly(filtered)
	if len(candidates) == 0 {
		// Fallback: serve from unhealthy rather than fail outright.
		candidates = filtered
	}

	key := string(f)
	if requestedModel != nil {
		key = string(f) + ":" + *requestedModel
	}
	idx := s.State.NextIndex(key, len(candidates))
	chosen := candidates[idx]

	if !opts.SkipUsageCount {
		chosen.TouchSelection(s.now())
		s.Store.ScheduleSave(f)
	}

	return chosen, nil
}

func healthyOnly(entries []*entry.Entry) []*entry.Entry {
	out := make([]*entry.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsHealthy() {
			out = append(out, e)
		}
	}
	return out
}

// triggerRecoveries implements §4.1 step 4: for every unhealthy entry whose
// cool-down has elapsed, overwrite lastErrorTime with now (the debounce
// guard preventing a second concurrent selection from re-triggering) and
// dispatch an async recovery probe.
func (s *Selector) triggerRecoveries(f family.Family, candidates []*entry.Entry) {
	now := s.now()
	for _, e := range candidates {
		if e.IsHealthy() {
			continue
		}
		last := e.LastErrorTime()
		if last == nil {
			continue
		}
		if now.Sub(*last) < s.HealthCheckInterval {
			continue
		}
		if !e.CompareAndSwapLastErrorTime(last, now) {
			// Another caller already claimed this recovery window.
			continue
		}
		if s.Recovery != nil {
			s.Recovery.Trigger(f, e)
		}
	}
}
