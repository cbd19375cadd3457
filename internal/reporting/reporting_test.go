package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/poolstate"
)

type noopSource struct{}

func (noopSource) Entries(family.Family) []*entry.Entry { return nil }

func newReporter(t *testing.T, state *poolstate.State) *Reporter {
	t.Helper()
	store := persist.New(t.TempDir()+"/pool.json", time.Hour, noopSource{})
	return &Reporter{State: state, Store: store, MaxErrorCount: 3}
}

func TestMarkUnhealthyEscalatesAfterMaxErrors(t *testing.T) {
	state := poolstate.New()
	x := entry.New("X", nil)
	state.SetFamily(family.ClaudeCustom, []*entry.Entry{x})
	r := newReporter(t, state)

	r.MarkUnhealthy(family.ClaudeCustom, "X", "timeout")
	r.MarkUnhealthy(family.ClaudeCustom, "X", "timeout")
	require.True(t, x.IsHealthy())
	r.MarkUnhealthy(family.ClaudeCustom, "X", "timeout")
	assert.False(t, x.IsHealthy())
}

func TestMarkHealthyClearsErrorState(t *testing.T) {
	state := poolstate.New()
	x := entry.New("X", nil)
	state.SetFamily(family.ClaudeCustom, []*entry.Entry{x})
	r := newReporter(t, state)

	r.MarkUnhealthy(family.ClaudeCustom, "X", "timeout")
	r.MarkUnhealthy(family.ClaudeCustom, "X", "timeout")
	r.MarkUnhealthy(family.ClaudeCustom, "X", "timeout")
	require.False(t, x.IsHealthy())

	r.MarkHealthy(family.ClaudeCustom, "X")
	assert.True(t, x.IsHealthy())
	assert.Equal(t, int64(1), x.Snapshot().UsageCount)
}

func TestDisableEnableResetOperatorActions(t *testing.T) {
	state := poolstate.New()
	x := entry.New("X", nil)
	state.SetFamily(family.ClaudeCustom, []*entry.Entry{x})
	r := newReporter(t, state)

	assert.True(t, r.Disable(family.ClaudeCustom, "X"))
	assert.True(t, x.IsDisabled())

	assert.True(t, r.Enable(family.ClaudeCustom, "X"))
	assert.False(t, x.IsDisabled())

	r.MarkUnhealthy(family.ClaudeCustom, "X", "err")
	assert.True(t, r.ResetCounters(family.ClaudeCustom, "X"))
	assert.Equal(t, 0, x.ErrorCount())
}

func TestUnknownEntryActionsAreNoOp(t *testing.T) {
	state := poolstate.New()
	r := newReporter(t, state)

	assert.False(t, r.Disable(family.ClaudeCustom, "missing"))
	assert.False(t, r.Enable(family.ClaudeCustom, "missing"))
	assert.False(t, r.ResetCounters(family.ClaudeCustom, "missing"))
	r.MarkUnhealthy(family.ClaudeCustom, "missing", "x")
	r.MarkHealthy(family.ClaudeCustom, "missing")
}
