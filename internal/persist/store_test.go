package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
)

type fakeSource struct {
	entries map[family.Family][]*entry.Entry
}

func (f *fakeSource) Entries(fam family.Family) []*entry.Entry { return f.entries[fam] }

func TestFlushWritesOnlyPendingFamilies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openai-custom":[],"claude-custom":[]}`), 0o644))

	src := &fakeSource{entries: map[family.Family][]*entry.Entry{
		family.OpenAICustom: {entry.New("A", nil)},
	}}
	store := New(path, time.Hour, src)
	store.ScheduleSave(family.OpenAICustom)
	store.Flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "openai-custom")
	assert.Contains(t, doc, "claude-custom")

	var entries []*entry.Entry
	require.NoError(t, json.Unmarshal(doc["openai-custom"], &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].UUID)

	assert.Equal(t, "[]", string(doc["claude-custom"]))
}

func TestFlushCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.json")

	src := &fakeSource{entries: map[family.Family][]*entry.Entry{
		family.ClaudeCustom: {entry.New("X", nil)},
	}}
	store := New(path, time.Hour, src)
	store.ScheduleSave(family.ClaudeCustom)
	store.Flush()

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestFlushWithoutPendingIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.json")

	store := New(path, time.Hour, &fakeSource{})
	store.Flush()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestScheduleSaveCoalescesMultipleMutations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.json")

	src := &fakeSource{entries: map[family.Family][]*entry.Entry{
		family.OpenAICustom: {entry.New("A", nil)},
		family.ClaudeCustom: {entry.New("B", nil)},
	}}
	store := New(path, 20*time.Millisecond, src)
	store.ScheduleSave(family.OpenAICustom)
	store.ScheduleSave(family.ClaudeCustom)
	store.ScheduleSave(family.OpenAICustom)

	time.Sleep(100 * time.Millisecond)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "openai-custom")
	assert.Contains(t, doc, "claude-custom")
}
