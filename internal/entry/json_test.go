package entry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDefaultsMissingFields(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`{"uuid":"u1","credentials":{"key":"x"}}`), &e)
	require.NoError(t, err)

	assert.Equal(t, "u1", e.UUID)
	assert.True(t, e.CheckHealth)
	assert.True(t, e.IsHealthy())
	assert.False(t, e.IsDisabled())
}

func TestUnmarshalGeneratesUUIDWhenMissing(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`{"credentials":{"key":"x"}}`), &e)
	require.NoError(t, err)
	assert.NotEmpty(t, e.UUID)
}

func TestUnmarshalExplicitFalseNotOverridden(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`{"uuid":"u1","checkHealth":false,"isHealthy":false}`), &e)
	require.NoError(t, err)

	assert.False(t, e.CheckHealth)
	assert.False(t, e.IsHealthy())
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	e := New("u1", json.RawMessage(`{"apiKey":"secret"}`))
	now := time.Now().UTC().Truncate(time.Second)
	e.MarkUnhealthy(now, "timeout", 1)
	e.TouchSelection(now)

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var round Entry
	require.NoError(t, json.Unmarshal(data, &round))

	assert.Equal(t, e.UUID, round.UUID)
	assert.Equal(t, e.IsHealthy(), round.IsHealthy())
	assert.Equal(t, e.ErrorCount(), round.ErrorCount())

	snap := round.Snapshot()
	require.NotNil(t, snap.LastErrorTime)
	assert.True(t, snap.LastErrorTime.Equal(now))
}

func TestExtrasPreservedAcrossRoundTrip(t *testing.T) {
	raw := []byte(`{"uuid":"u1","credentials":{},"_comment":"manually added","_originalId":"legacy-7"}`)
	var e Entry
	require.NoError(t, json.Unmarshal(raw, &e))

	data, err := json.Marshal(&e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "manually added", decoded["_comment"])
	assert.Equal(t, "legacy-7", decoded["_originalId"])
}
