package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestSetEntryCountsAndObserveProbe(t *testing.T) {
	reg := NewRegistry("test")
	registry := prometheus.NewRegistry()
	reg.MustRegister(registry)

	reg.SetEntryCounts("openai-custom", 2, 1, 0)
	reg.ObserveProbe("openai-custom", true, time.Now().Add(-10*time.Millisecond))

	families, err := registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "test_entries" {
			found = true
			for _, m := range mf.Metric {
				require.NotNil(t, m.Gauge)
			}
		}
	}
	require.True(t, found)
}
