// Package entry defines the provider entry record, a single
// credential/account within a provider family, and its concurrency-safe
// mutators. Field semantics follow the data model in SPEC_FULL.md §3.
package entry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UsageSnapshot is the cached quota result of the last successful Mode-A
// probe for an entry, or nil if none has ever succeeded.
type UsageSnapshot struct {
	TotalUsed      float64   `json:"totalUsed"`
	TotalLimit     float64   `json:"totalLimit"`
	Remaining      float64   `json:"remaining"`
	UsagePercent   float64   `json:"usagePercent"`
	HasActiveQuota bool      `json:"hasActiveQuota"`
	CheckedAt      time.Time `json:"checkedAt"`
}

// Entry is a single credential/account within a provider family. Fields
// listed as config are set at load time and never mutated; fields listed as
// counters are guarded by mu and mutated by Selector/reporting/probe.
type Entry struct {
	// --- config, immutable after load ---
	UUID                string          `json:"uuid"`
	Credentials         json.RawMessage `json:"credentials"`
	CheckModelName      string          `json:"checkModelName,omitempty"`
	CheckHealth         bool            `json:"checkHealth"`
	NotSupportedModels  []string        `json:"notSupportedModels,omitempty"`

	// --- counters, guarded by mu ---
	mu                   sync.RWMutex
	isHealthy            bool
	isDisabled           bool
	errorCount           int
	usageCount           int64
	lastUsed             *time.Time
	lastErrorTime        *time.Time
	lastErrorMessage     *string
	lastHealthCheckTime  *time.Time
	lastHealthCheckModel *string
	usageInfo            *UsageSnapshot

	// extras preserves unknown on-disk keys (e.g. "_comment",
	// "_originalId") so human annotations round-trip through a save.
	extras map[string]json.RawMessage
}

// New creates a freshly-defaulted entry, per the Lifecycle rules in §3:
// isHealthy defaults true, isDisabled defaults false, counters zero. An
// empty id generates a fresh uuid, for callers creating an entry for a
// credential that has none yet.
func New(id string, credentials json.RawMessage) *Entry {
	if id == "" {
		id = uuid.NewString()
	}
	return &Entry{
		UUID:        id,
		Credentials: credentials,
		CheckHealth: true,
		isHealthy:   true,
		extras:      map[string]json.RawMessage{},
	}
}

func cloneStrings(notSupported []string) []string {
	if notSupported == nil {
		return nil
	}
	out := make([]string, len(notSupported))
	copy(out, notSupported)
	return out
}

// SupportsModel reports whether model is absent from NotSupportedModels.
func (e *Entry) SupportsModel(model string) bool {
	for _, m := range e.NotSupportedModels {
		if m == model {
			return false
		}
	}
	return true
}

// Snapshot returns a point-in-time copy of the mutable counters, safe to
// read without holding e's lock afterwards.
type Snapshot struct {
	IsHealthy            bool
	IsDisabled           bool
	ErrorCount           int
	UsageCount           int64
	LastUsed             *time.Time
	LastErrorTime        *time.Time
	LastErrorMessage     *string
	LastHealthCheckTime  *time.Time
	LastHealthCheckModel *string
	UsageInfo            *UsageSnapshot
}

func (e *Entry) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		IsHealthy:            e.isHealthy,
		IsDisabled:           e.isDisabled,
		ErrorCount:           e.errorCount,
		UsageCount:           e.usageCount,
		LastUsed:             e.lastUsed,
		LastErrorTime:        e.lastErrorTime,
		LastErrorMessage:     e.lastErrorMessage,
		LastHealthCheckTime:  e.lastHealthCheckTime,
		LastHealthCheckModel: e.lastHealthCheckModel,
		UsageInfo:            e.usageInfo,
	}
}

func (e *Entry) IsHealthy() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isHealthy
}

func (e *Entry) IsDisabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isDisabled
}

func (e *Entry) ErrorCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.errorCount
}

func (e *Entry) LastErrorTime() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErrorTime
}

// TouchSelection records a selection: lastUsed=now, usageCount++. Called by
// the Selector unless opts.SkipUsageCount is set.
func (e *Entry) TouchSelection(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = &now
	e.usageCount++
}

// CompareAndSwapLastErrorTime overwrites lastErrorTime with now only if the
// current value equals expected. It reports whether the swap happened. This
// is the debounce guard the Selector's recovery-trigger sweep uses so two
// concurrent selections over the same cooled-down entry don't both dispatch
// a recovery probe.
func (e *Entry) CompareAndSwapLastErrorTime(expected *time.Time, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !sameTime(e.lastErrorTime, expected) {
		return false
	}
	e.lastErrorTime = &now
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// MarkUnhealthy applies a failure per §4.2: increments errorCount, stamps
// lastErrorTime/lastErrorMessage, and flips isHealthy false once errorCount
// reaches maxErrorCount.
func (e *Entry) MarkUnhealthy(now time.Time, message string, maxErrorCount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorCount++
	e.lastErrorTime = &now
	e.lastErrorMessage = &message
	if e.errorCount >= maxErrorCount {
		e.isHealthy = false
	}
}

// MarkUnhealthyNoEscalate records a failed recovery attempt without bumping
// errorCount, used by §4.4 when a recovery probe fails against an entry
// that is already unhealthy.
func (e *Entry) MarkUnhealthyNoEscalate(now time.Time, message string, model string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErrorMessage = &message
	e.lastHealthCheckTime = &now
	if model != "" {
		e.lastHealthCheckModel = &model
	}
}

// MarkHealthy applies a success per §4.2. When resetUsageCount is true,
// usageCount is zeroed (supervisor path); otherwise usageCount is
// incremented and lastUsed stamped, preserving the legacy behavior that a
// successful health probe counts as usage (see SPEC_FULL.md Open Questions).
func (e *Entry) MarkHealthy(now time.Time, resetUsageCount bool, healthCheckModel string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isHealthy = true
	e.errorCount = 0
	e.lastErrorTime = nil
	e.lastErrorMessage = nil
	e.lastHealthCheckTime = &now
	if healthCheckModel != "" {
		e.lastHealthCheckModel = &healthCheckModel
	}
	if resetUsageCount {
		e.usageCount = 0
	} else {
		e.usageCount++
		e.lastUsed = &now
	}
}

// SetUsageInfo caches the quota snapshot from a successful Mode-A probe.
func (e *Entry) SetUsageInfo(now time.Time, snap *UsageSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.usageInfo = snap
	e.lastHealthCheckTime = &now
}

// ResetCounters clears error and usage accounting without touching health
// or disabled state, the operator action of the same name in §6.
func (e *Entry) ResetCounters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorCount = 0
	e.usageCount = 0
	e.lastErrorTime = nil
	e.lastErrorMessage = nil
}

// Disable excludes the entry from selection regardless of health.
func (e *Entry) Disable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isDisabled = true
}

// Enable re-admits the entry to selection.
func (e *Entry) Enable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isDisabled = false
}
