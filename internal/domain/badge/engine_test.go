package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/language-study/study-hub/internal/domain/progress"
)

func snapshotWithMastered(n int) *progress.Snapshot {
	s := &progress.Snapshot{OwnerUID: "u-1"}
	for i := 0; i < n; i++ {
		s.Vocabulary = append(s.Vocabulary, progress.VocabularyItem{
			ID:       "v",
			Category: "General",
			Status:   progress.StatusMastered,
		})
	}
	return s
}

func TestRuleIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range Rules() {
		assert.False(t, seen[b.ID], "duplicate badge id %q", b.ID)
		seen[b.ID] = true
		assert.NotEmpty(t, b.Name)
		assert.NotNil(t, b.Check)
	}
}

func TestEvaluateEmptySnapshot(t *testing.T) {
	e := NewEngine()
	earned := e.Evaluate(&progress.Snapshot{})
	assert.Empty(t, earned)
}

func TestEvaluateFirstWord(t *testing.T) {
	e := NewEngine()
	earned := e.Evaluate(snapshotWithMastered(1))
	assert.True(t, earned.Has("first_word"))
	assert.True(t, earned.Has("first_mastered_word"))
	assert.False(t, earned.Has("ten_mastered_words"))
	assert.False(t, earned.Has("first_skill"))
}

func TestEvaluateIsRevocable(t *testing.T) {
	e := NewEngine()

	earned := e.Evaluate(snapshotWithMastered(10))
	require.True(t, earned.Has("ten_mastered_words"))

	// state regressed: the earned set shrinks with it
	earned = e.Evaluate(snapshotWithMastered(3))
	assert.False(t, earned.Has("ten_mastered_words"))
	assert.True(t, earned.Has("first_mastered_word"))
}

func TestEarnDeltaTableOrder(t *testing.T) {
	e := NewEngine()

	prev := e.Evaluate(&progress.Snapshot{})
	curr := e.Evaluate(snapshotWithMastered(10))

	delta := e.EarnDelta(prev, curr)
	assert.Equal(t, []string{"first_word", "first_mastered_word", "ten_mastered_words"}, delta)

	// no changes, no delta
	assert.Empty(t, e.EarnDelta(curr, curr))

	// regression produces no announcements
	assert.Empty(t, e.EarnDelta(curr, prev))
}

func TestSetRoundTrip(t *testing.T) {
	s := SetFromIDs([]string{"first_word", "legacy_badge", "first_skill"})
	assert.True(t, s.Has("legacy_badge"))

	// IDs drops unknown ids and orders by the rule table
	assert.Equal(t, []string{"first_word", "first_skill"}, s.IDs())
}

func TestCategoryCurator(t *testing.T) {
	e := NewEngine()
	s := &progress.Snapshot{
		Vocabulary: []progress.VocabularyItem{
			{ID: "1", Category: "General"},
			{ID: "2", Category: "Verbs"},
			{ID: "3", Category: "Nouns"},
		},
	}
	assert.True(t, e.Evaluate(s).Has("category_curator"))

	s.Vocabulary = s.Vocabulary[:2]
	assert.False(t, e.Evaluate(s).Has("category_curator"))
}

func TestByID(t *testing.T) {
	b, ok := ByID("first_word")
	require.True(t, ok)
	assert.Equal(t, "First Word", b.Name)

	_, ok = ByID("nope")
	assert.False(t, ok)
}
