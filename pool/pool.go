// Package pool is the public facade of the Provider Pool Manager: it wires
// together the pool state store, persistence layer, selector, health probe
// engine, recovery dispatcher, and supervisor into the single Manager type
// callers embed.
package pool

import (
	"context"
	"fmt"

	"github.com/oakhollow/providerpool/internal/adapter"
	"github.com/oakhollow/providerpool/internal/config"
	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/metrics"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/poolstate"
	"github.com/oakhollow/providerpool/internal/probe"
	"github.com/oakhollow/providerpool/internal/recovery"
	"github.com/oakhollow/providerpool/internal/reporting"
	"github.com/oakhollow/providerpool/internal/selector"
	"github.com/oakhollow/providerpool/internal/supervisor"
	"github.com/oakhollow/providerpool/pkg/log"
)

// Manager is the entry point embedding applications use. It owns the whole
// lifecycle: load, serve selections, accept success/failure reports, run
// the periodic sweep, and flush on shutdown.
type Manager struct {
	cfg   *config.Config
	state *poolstate.State
	store *persist.Store

	sel   *selector.Selector
	rep   *reporting.Reporter
	rec   *recovery.Dispatcher
	sup   *supervisor.Supervisor
	probe *probe.Engine

	Metrics *metrics.Registry
}

// Options lets callers override the manager's adapter factory; everything
// else is derived from cfg.
type Options struct {
	Config   *config.Config
	Adapters adapter.Factory
}

// New loads the on-disk pool document and assembles a ready-to-use Manager.
// It does not start the supervisor; call Start for that.
func New(opts Options) (*Manager, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pool: config is required")
	}
	if opts.Adapters == nil {
		return nil, fmt.Errorf("pool: adapter factory is required")
	}

	log.SetLevelName(opts.Config.LogLevel)

	loaded, err := persist.Load(opts.Config.PoolFilePath)
	if err != nil {
		return nil, fmt.Errorf("pool: load %s: %w", opts.Config.PoolFilePath, err)
	}

	state := poolstate.New()
	for f, entries := range loaded {
		state.SetFamily(f, entries)
	}

	store := persist.New(opts.Config.PoolFilePath, opts.Config.SaveDebounceTime, state)

	probeEngine := &probe.Engine{
		Adapters: opts.Adapters,
		Proxy:    opts.Config.Proxy,
	}

	reg := metrics.NewRegistry("providerpool")

	rec := &recovery.Dispatcher{
		Probe:   probeEngine,
		Store:   store,
		Metrics: reg,
	}

	sel := &selector.Selector{
		State:               state,
		Store:               store,
		Recovery:            rec,
		HealthCheckInterval: opts.Config.HealthCheckInterval,
	}

	rep := &reporting.Reporter{
		State:         state,
		Store:         store,
		MaxErrorCount: opts.Config.MaxErrorCount,
	}

	sup := &supervisor.Supervisor{
		State:               state,
		Probe:               probeEngine,
		Store:               store,
		Interval:            opts.Config.HealthCheckInterval,
		HealthCheckInterval: opts.Config.HealthCheckInterval,
		ProbeRateLimit:      opts.Config.ProbeRateLimit,
		Metrics:             reg,
	}

	return &Manager{
		cfg:     opts.Config,
		state:   state,
		store:   store,
		sel:     sel,
		rep:     rep,
		rec:     rec,
		sup:     sup,
		probe:   probeEngine,
		Metrics: reg,
	}, nil
}

// Start launches the supervisor's periodic sweep, including its immediate
// startup run. Callers that want metrics exported should register m.Metrics
// with their own prometheus.Registerer before or after calling Start.
func (m *Manager) Start(ctx context.Context) {
	m.sup.Start(ctx)
}

// Select runs the Selector algorithm for family f. requestedModel is nil
// when the caller has no model preference.
func (m *Manager) Select(f family.Family, requestedModel *string) (*entry.Entry, error) {
	return m.sel.Select(f, requestedModel, selector.Options{})
}

// MarkUnhealthy reports a failed live request against (family, uuid).
func (m *Manager) MarkUnhealthy(f family.Family, uuid string, message string) {
	m.rep.MarkUnhealthy(f, uuid, message)
}

// MarkHealthy reports a successful live request against (family, uuid).
func (m *Manager) MarkHealthy(f family.Family, uuid string) {
	m.rep.MarkHealthy(f, uuid)
}

// ResetCounters is the operator action of the same name (§6).
func (m *Manager) ResetCounters(f family.Family, uuid string) bool {
	return m.rep.ResetCounters(f, uuid)
}

// Disable is the operator action of the same name (§6).
func (m *Manager) Disable(f family.Family, uuid string) bool {
	return m.rep.Disable(f, uuid)
}

// Enable is the operator action of the same name (§6).
func (m *Manager) Enable(f family.Family, uuid string) bool {
	return m.rep.Enable(f, uuid)
}

// PerformHealthChecks runs an on-demand sweep across every family, the
// operator action named in §6.
func (m *Manager) PerformHealthChecks(ctx context.Context, isInit bool) {
	m.sup.PerformHealthChecks(ctx, isInit)
}

// Status returns a point-in-time snapshot of every entry in every family,
// for operator tooling running inside the host process.
func (m *Manager) Status() map[family.Family][]EntryStatus {
	out := make(map[family.Family][]EntryStatus)
	for _, f := range m.state.Families() {
		entries := m.state.Entries(f)
		statuses := make([]EntryStatus, 0, len(entries))
		for _, e := range entries {
			statuses = append(statuses, EntryStatus{
				UUID:     e.UUID,
				Snapshot: e.Snapshot(),
			})
		}
		out[f] = statuses
	}
	return out
}

// EntryStatus pairs an entry's identity with its current counters.
type EntryStatus struct {
	UUID     string
	Snapshot entry.Snapshot
}

// Close stops the supervisor and performs a final synchronous flush,
// matching the shutdown behavior described in SPEC_FULL.md §5.
func (m *Manager) Close(ctx context.Context) error {
	m.sup.Stop()
	m.store.Flush()
	return nil
}
