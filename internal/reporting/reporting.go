// Package reporting implements the operator-facing and request-path mutation
// entry points of §4.2 and §6: MarkUnhealthy/MarkHealthy as called after a
// live request succeeds or fails, and the operator actions Disable/Enable/
// ResetCounters. Every mutation here schedules a persistence save.
package reporting

import (
	"time"

	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/poolstate"
	"github.com/oakhollow/providerpool/pkg/log"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Reporter applies health/usage outcomes to entries and persists the result.
type Reporter struct {
	State         *poolstate.State
	Store         *persist.Store
	MaxErrorCount int
	Now           Clock
}

func (r *Reporter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// MarkUnhealthy implements §4.2's failure path: find the entry, apply the
// error, schedule a save. A missing entry is logged and otherwise a no-op; the caller may
// be reporting against a pool that was reloaded since the request started.
func (r *Reporter) MarkUnhealthy(f family.Family, uuid string, message string) {
	e := r.State.FindByUUID(f, uuid)
	if e == nil {
		log.WithFamily(log.WithModule("reporting"), string(f)).Warn(
			"markUnhealthy: unknown entry", "uuid", uuid)
		return
	}
	maxErrors := r.MaxErrorCount
	if maxErrors <= 0 {
		maxErrors = 3
	}
	e.MarkUnhealthy(r.now(), message, maxErrors)
	r.Store.ScheduleSave(f)
}

// MarkHealthy implements §4.2's success path. resetUsageCount is false on
// this path: a successful live request increments usage like any other
// selection, per the Open Questions decision recorded in SPEC_FULL.md.
func (r *Reporter) MarkHealthy(f family.Family, uuid string) {
	e := r.State.FindByUUID(f, uuid)
	if e == nil {
		return
	}
	e.MarkHealthy(r.now(), false, "")
	r.Store.ScheduleSave(f)
}

// ResetCounters implements the operator action in §6.
func (r *Reporter) ResetCounters(f family.Family, uuid string) bool {
	e := r.State.FindByUUID(f, uuid)
	if e == nil {
		return false
	}
	e.ResetCounters()
	r.Store.ScheduleSave(f)
	return true
}

// Disable implements the operator action in §6.
func (r *Reporter) Disable(f family.Family, uuid string) bool {
	e := r.State.FindByUUID(f, uuid)
	if e == nil {
		return false
	}
	e.Disable()
	r.Store.ScheduleSave(f)
	return true
}

// Enable implements the operator action in §6.
func (r *Reporter) Enable(f family.Family, uuid string) bool {
	e := r.State.FindByUUID(f, uuid)
	if e == nil {
		return false
	}
	e.Enable()
	r.Store.ScheduleSave(f)
	return true
}
