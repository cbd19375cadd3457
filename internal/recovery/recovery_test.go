package recovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/oakhollow/providerpool/internal/adapter"
	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/metrics"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/probe"
)

type fakeAdapter struct {
	fail  bool
	calls int32
	gate  chan struct{}
}

func (f *fakeAdapter) GenerateContent(ctx context.Context, modelName string, payload adapter.Payload) (adapter.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if f.fail {
		return nil, assertErr{}
	}
	return adapter.Result{"ok": true}, nil
}

type assertErr struct{}

func (assertErr) Error() string { return "probe failed" }

type fakeFactory struct{ ad adapter.Adapter }

func (f *fakeFactory) Adapter(ctx context.Context, fam, uuid string, credentials []byte, proxy adapter.ProxyConfig) (adapter.Adapter, error) {
	return f.ad, nil
}
func (f *fakeFactory) Invalidate(fam, uuid string) {}

type noopSource struct{}

func (noopSource) Entries(family.Family) []*entry.Entry { return nil }

func newDispatcher(ad adapter.Adapter) *Dispatcher {
	store := persist.New("/tmp/unused-recovery-test.json", time.Hour, noopSource{})
	eng := &probe.Engine{Adapters: &fakeFactory{ad: ad}}
	return &Dispatcher{Probe: eng, Store: store, Timeout: time.Second}
}

func TestRunMarksHealthyOnSuccess(t *testing.T) {
	e := entry.New("X", nil)
	e.MarkUnhealthy(time.Now(), "timeout", 1)
	require.False(t, e.IsHealthy())

	d := newDispatcher(&fakeAdapter{})
	d.run(family.OpenAICustom, e)
	assert.True(t, e.IsHealthy())
}

func TestRunKeepsUnhealthyWithoutEscalatingOnFailure(t *testing.T) {
	e := entry.New("X", nil)
	e.MarkUnhealthy(time.Now(), "timeout", 1)
	require.Equal(t, 1, e.ErrorCount())

	d := newDispatcher(&fakeAdapter{fail: true})
	d.run(family.OpenAICustom, e)
	assert.False(t, e.IsHealthy())
	assert.Equal(t, 1, e.ErrorCount()) // MarkUnhealthyNoEscalate does not bump errorCount
}

func TestTriggerDedupesConcurrentCallsForSameEntry(t *testing.T) {
	e := entry.New("X", nil)
	e.MarkUnhealthy(time.Now(), "timeout", 1)

	ad := &fakeAdapter{gate: make(chan struct{})}
	d := newDispatcher(ad)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Trigger(family.OpenAICustom, e)
		}()
	}
	// Let all five Triggers reach DoChan before releasing the gate.
	time.Sleep(50 * time.Millisecond)
	close(ad.gate)
	wg.Wait()
	time.Sleep(50 * time.Millisecond) // allow the singleflight goroutine to finish

	assert.Equal(t, int32(1), atomic.LoadInt32(&ad.calls))
}

func TestRunRecordsProbeMetrics(t *testing.T) {
	e := entry.New("X", nil)
	e.MarkUnhealthy(time.Now(), "timeout", 1)

	d := newDispatcher(&fakeAdapter{})
	d.Metrics = metrics.NewRegistry("test_recovery")
	d.run(family.OpenAICustom, e)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		d.Metrics.ProbeTotal.WithLabelValues(string(family.OpenAICustom), "success")))
}
