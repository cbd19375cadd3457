package adapter

import (
	"fmt"
	"math"

	"github.com/oakhollow/providerpool/internal/entry"
)

// KiroUsageBucket is one line item in a Kiro quota response: a named
// allotment with how much of it has been consumed.
type KiroUsageBucket struct {
	CurrentUsage float64
	UsageLimit   float64
}

// KiroBonus is a supplemental allotment that only counts while active.
type KiroBonus struct {
	Status       string // e.g. "ACTIVE"
	CurrentUsage float64
	UsageLimit   float64
}

// KiroUsageRaw is the raw shape returned by the Kiro adapter's
// GetUsageLimits, prior to aggregation.
type KiroUsageRaw struct {
	UsageBreakdown []KiroUsageBucket
	FreeTrial      *KiroUsageBucket
	Bonuses        []KiroBonus
}

func hasActiveQuota(limit, used float64) bool {
	return limit > 0 && used < limit
}

// FormatKiroUsage is the sibling utility named in SPEC_FULL.md §6: a pure
// parser that aggregates a raw Kiro quota document into a normalized
// UsageSnapshot, applying the aggregation and verdict rules of §4.3 Mode A
// steps 3–4. It is a pure function in this leaf package, which the probe
// engine imports directly, so there is no manager↔formatter cycle.
func FormatKiroUsage(raw KiroUsageRaw) entry.UsageSnapshot {
	var totalUsed, totalLimit float64
	active := false

	for _, b := range raw.UsageBreakdown {
		totalUsed += b.CurrentUsage
		totalLimit += b.UsageLimit
		if hasActiveQuota(b.UsageLimit, b.CurrentUsage) {
			active = true
		}
	}
	if raw.FreeTrial != nil {
		totalUsed += raw.FreeTrial.CurrentUsage
		totalLimit += raw.FreeTrial.UsageLimit
		if hasActiveQuota(raw.FreeTrial.UsageLimit, raw.FreeTrial.CurrentUsage) {
			active = true
		}
	}
	for _, bonus := range raw.Bonuses {
		if bonus.Status != "ACTIVE" {
			continue
		}
		totalUsed += bonus.CurrentUsage
		totalLimit += bonus.UsageLimit
		if hasActiveQuota(bonus.UsageLimit, bonus.CurrentUsage) {
			active = true
		}
	}

	remaining := totalLimit - totalUsed
	var percent float64
	if totalLimit > 0 {
		percent = math.Round(100 * totalUsed / totalLimit)
	}

	return entry.UsageSnapshot{
		TotalUsed:      totalUsed,
		TotalLimit:     totalLimit,
		Remaining:      remaining,
		UsagePercent:   percent,
		HasActiveQuota: active,
	}
}

// KiroVerdict turns a snapshot into the probe's success/message pair, per
// the "Healthy iff hasActiveQuota ∧ (totalLimit − totalUsed) > 0" rule and
// its two unhealthy messages.
func KiroVerdict(snap entry.UsageSnapshot) (healthy bool, message string) {
	healthy = snap.HasActiveQuota && snap.Remaining > 0
	if healthy {
		return true, ""
	}
	if snap.Remaining <= 0 {
		return false, fmt.Sprintf("quota exhausted (%v/%v)", snap.TotalUsed, snap.TotalLimit)
	}
	return false, "no active quota"
}
