// Package supervisor implements the periodic sweep of §4.5: on a fixed
// interval (or on demand at startup), every entry across every family is
// probed, independent of whether a live request ever touches it.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/metrics"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/poolstate"
	"github.com/oakhollow/providerpool/internal/probe"
	"github.com/oakhollow/providerpool/pkg/log"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Supervisor owns the cron schedule that drives PerformHealthChecks.
type Supervisor struct {
	State    *poolstate.State
	Probe    *probe.Engine
	Store    *persist.Store
	Interval time.Duration
	Now      Clock

	// HealthCheckInterval is the per-entry cool-down gate of §4.5: an
	// already-unhealthy entry whose lastErrorTime is more recent than this
	// is skipped for this sweep. Defaults to Interval when zero, since the
	// two share the same config default in practice.
	HealthCheckInterval time.Duration

	// ProbeRateLimit bounds how many probes per second the sweep dispatches,
	// so a large pool doesn't open hundreds of simultaneous upstream
	// connections at once. Zero means unlimited.
	ProbeRateLimit float64

	// Metrics is optional; when set, every probe's latency/outcome and the
	// post-sweep per-family entry counts are recorded against it.
	Metrics *metrics.Registry

	mu      sync.Mutex
	cron    *cron.Cron
	limiter *rate.Limiter
}

func (s *Supervisor) rateLimiter() *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiter == nil {
		limit := rate.Inf
		if s.ProbeRateLimit > 0 {
			limit = rate.Limit(s.ProbeRateLimit)
		}
		s.limiter = rate.NewLimiter(limit, 1)
	}
	return s.limiter
}

func (s *Supervisor) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start schedules PerformHealthChecks(false) to run every Interval, and
// (per §4.5, "also runs once at startup") performs one run immediately in
// the background. Start is idempotent; calling it twice is a no-op.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	c := cron.New()
	if _, err := c.AddFunc(every(interval), func() {
		s.PerformHealthChecks(ctx, false)
	}); err != nil {
		log.WithModule("supervisor").Error("failed to schedule sweep", "error", err)
		return
	}
	s.cron = c
	c.Start()

	go s.PerformHealthChecks(ctx, true)
}

// Stop halts the schedule. In-flight probes are not cancelled.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
}

// every renders a fixed interval as a cron @every expression, since the
// supervisor's schedule is a simple period rather than a calendar rule.
func every(d time.Duration) string {
	return "@every " + d.String()
}

// PerformHealthChecks sweeps every family and entry, probing each
// concurrently but paced by ProbeRateLimit. isInit marks the startup sweep;
// both sweeps otherwise behave the same, resetting usage counters on a
// successful probe per §4.5.
func (s *Supervisor) PerformHealthChecks(ctx context.Context, isInit bool) {
	logger := log.WithModule("supervisor")
	logger.Debug("sweep starting", "isInit", isInit)

	var wg sync.WaitGroup
	for _, f := range s.State.Families() {
		for _, e := range s.State.Entries(f) {
			wg.Add(1)
			go func(f family.Family, e *entry.Entry) {
				defer wg.Done()
				if err := s.rateLimiter().Wait(ctx); err != nil {
					return
				}
				s.checkOne(ctx, f, e)
			}(f, e)
		}
	}
	wg.Wait()

	s.recordEntryCounts()
	logger.Debug("sweep complete")
}

// recordEntryCounts refreshes the per-family healthy/unhealthy/disabled
// gauges after a sweep, the same state the CLI's status view prints.
func (s *Supervisor) recordEntryCounts() {
	if s.Metrics == nil {
		return
	}
	for _, f := range s.State.Families() {
		var healthy, unhealthy, disabled int
		for _, e := range s.State.Entries(f) {
			switch {
			case e.IsDisabled():
				disabled++
			case e.IsHealthy():
				healthy++
			default:
				unhealthy++
			}
		}
		s.Metrics.SetEntryCounts(string(f), healthy, unhealthy, disabled)
	}
}

func (s *Supervisor) checkOne(ctx context.Context, f family.Family, e *entry.Entry) {
	if e.IsDisabled() {
		return
	}

	// §4.5: an already-unhealthy entry whose cool-down hasn't elapsed is
	// skipped for this sweep entirely, leaving it for the Selector's
	// recovery-trigger sweep or a later pass of this one.
	if !e.IsHealthy() {
		if last := e.LastErrorTime(); last != nil {
			interval := s.HealthCheckInterval
			if interval <= 0 {
				interval = s.Interval
			}
			if interval <= 0 {
				interval = 10 * time.Minute
			}
			if s.now().Sub(*last) < interval {
				return
			}
		}
	}

	start := s.now()
	res, err := s.Probe.Probe(ctx, f, e, false)
	if err != nil {
		log.WithFamily(log.WithModule("supervisor"), string(f)).Warn(
			"probe error", "uuid", e.UUID, "error", err)
		return
	}
	if res == nil {
		// No probe defined for this entry (gated off): reset its counters
		// per §4.5 rather than leaving stale error accounting in place.
		e.ResetCounters()
		s.Store.ScheduleSave(f)
		return
	}
	if s.Metrics != nil {
		s.Metrics.ObserveProbe(string(f), res.Success, start)
	}

	now := s.now()
	if res.Success {
		// The periodic sweep resets usage counters on recovery, unlike a
		// live request succeeding against an already-healthy entry; see
		// the Open Questions decision in SPEC_FULL.md.
		e.MarkHealthy(now, true, res.ModelName)
	} else if e.IsHealthy() {
		// A single failed sweep probe is enough to flip a previously-healthy
		// entry, unlike the error-count escalation a live request uses.
		e.MarkUnhealthy(now, res.ErrorMessage, 1)
	} else {
		e.MarkUnhealthyNoEscalate(now, res.ErrorMessage, res.ModelName)
	}
	s.Store.ScheduleSave(f)
}
