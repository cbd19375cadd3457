package poolstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
)

func TestNextIndexWrapsModuloLength(t *testing.T) {
	s := New()
	key := "openai-custom"

	got := []int{}
	for i := 0; i < 5; i++ {
		got = append(got, s.NextIndex(key, 2))
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0}, got)
}

func TestNextIndexIndependentKeys(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.NextIndex("family-only", 3))
	assert.Equal(t, 0, s.NextIndex("family:model", 3))
	assert.Equal(t, 1, s.NextIndex("family-only", 3))
}

func TestFindByUUID(t *testing.T) {
	s := New()
	a := entry.New("a", nil)
	b := entry.New("b", nil)
	s.SetFamily(family.OpenAICustom, []*entry.Entry{a, b})

	assert.Same(t, b, s.FindByUUID(family.OpenAICustom, "b"))
	assert.Nil(t, s.FindByUUID(family.OpenAICustom, "missing"))
	assert.Nil(t, s.FindByUUID(family.ClaudeCustom, "a"))
}

func TestFamiliesAndEntries(t *testing.T) {
	s := New()
	s.SetFamily(family.OpenAICustom, []*entry.Entry{entry.New("a", nil)})
	s.SetFamily(family.ClaudeCustom, nil)

	families := s.Families()
	assert.Len(t, families, 2)
	assert.Len(t, s.Entries(family.OpenAICustom), 1)
	assert.Empty(t, s.Entries(family.ClaudeCustom))
}
