// Package recovery implements the asynchronous recovery dispatch of §4.4:
// when the Selector notices an unhealthy entry's cool-down has elapsed, it
// hands the entry here to be re-probed off the request path, without ever
// blocking the caller that triggered it.
package recovery

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/metrics"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/probe"
	"github.com/oakhollow/providerpool/pkg/log"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Dispatcher runs recovery probes on their own goroutines, deduplicating
// concurrent triggers for the same (family, uuid) pair via singleflight so a
// burst of requests against one cooled-down entry only ever issues one
// probe.
type Dispatcher struct {
	Probe   *probe.Engine
	Store   *persist.Store
	Timeout time.Duration
	Now     Clock

	// Metrics is optional; when set, every recovery probe's latency and
	// outcome are recorded against it.
	Metrics *metrics.Registry

	group singleflight.Group
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Trigger satisfies selector.Recovery. It returns immediately; the probe
// itself runs on a background goroutine managed by singleflight.
func (d *Dispatcher) Trigger(f family.Family, e *entry.Entry) {
	key := string(f) + "/" + e.UUID
	d.group.DoChan(key, func() (any, error) {
		d.run(f, e)
		return nil, nil
	})
}

func (d *Dispatcher) run(f family.Family, e *entry.Entry) {
	logger := log.WithFamily(log.WithModule("recovery"), string(f))

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := d.now()
	res, err := d.Probe.Probe(ctx, f, e, true)
	if err != nil {
		logger.Warn("recovery probe failed to run", "uuid", e.UUID, "error", err)
		return
	}
	if res == nil {
		return
	}
	if d.Metrics != nil {
		d.Metrics.ObserveProbe(string(f), res.Success, start)
	}

	now := d.now()
	if res.Success {
		logger.Info("recovery probe succeeded", "uuid", e.UUID)
		e.MarkHealthy(now, false, res.ModelName)
	} else {
		logger.Info("recovery probe still failing", "uuid", e.UUID, "reason", res.ErrorMessage)
		e.MarkUnhealthyNoEscalate(now, res.ErrorMessage, res.ModelName)
	}
	d.Store.ScheduleSave(f)
}
