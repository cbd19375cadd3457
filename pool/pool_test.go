package pool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakhollow/providerpool/internal/adapter"
	"github.com/oakhollow/providerpool/internal/config"
	"github.com/oakhollow/providerpool/internal/family"
)

type fakeAdapter struct{}

func (fakeAdapter) GenerateContent(ctx context.Context, modelName string, payload adapter.Payload) (adapter.Result, error) {
	return adapter.Result{"ok": true}, nil
}

type fakeFactory struct{}

func (fakeFactory) Adapter(ctx context.Context, fam, uuid string, credentials []byte, proxy adapter.ProxyConfig) (adapter.Adapter, error) {
	return fakeAdapter{}, nil
}
func (fakeFactory) Invalidate(fam, uuid string) {}

func writeSeedPool(t *testing.T, path string) {
	t.Helper()
	doc := `{"openai-custom":[{"uuid":"A","credentials":{"apiKey":"x"}},{"uuid":"B","credentials":{"apiKey":"y"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func TestManagerSelectAndReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.json")
	writeSeedPool(t, path)

	m, err := New(Options{
		Config: &config.Config{
			PoolFilePath:        path,
			MaxErrorCount:       3,
			HealthCheckInterval: time.Minute,
			SaveDebounceTime:    time.Millisecond,
			LogLevel:            "error",
		},
		Adapters: fakeFactory{},
	})
	require.NoError(t, err)

	e1, err := m.Select(family.OpenAICustom, nil)
	require.NoError(t, err)
	e2, err := m.Select(family.OpenAICustom, nil)
	require.NoError(t, err)
	assert.NotEqual(t, e1.UUID, e2.UUID)

	m.MarkUnhealthy(family.OpenAICustom, e1.UUID, "timeout")
	assert.Equal(t, 1, e1.ErrorCount())

	require.NoError(t, m.Close(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "openai-custom")
}

func TestManagerStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.json")
	writeSeedPool(t, path)

	m, err := New(Options{
		Config: &config.Config{
			PoolFilePath:        path,
			MaxErrorCount:       3,
			HealthCheckInterval: time.Minute,
			SaveDebounceTime:    time.Millisecond,
			LogLevel:            "error",
		},
		Adapters: fakeFactory{},
	})
	require.NoError(t, err)

	status := m.Status()
	require.Len(t, status[family.OpenAICustom], 2)
}

func TestNewRequiresConfigAndAdapters(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Config: &config.Config{}})
	assert.Error(t, err)
}
