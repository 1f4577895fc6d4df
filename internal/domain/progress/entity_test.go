package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/language-study/study-hub/internal/domain/shared"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"not_started", "in_progress", "mastered"} {
		s, err := ParseStatus(raw)
		assert.NoError(t, err)
		assert.Equal(t, Status(raw), s)
	}

	_, err := ParseStatus("done")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestNewVocabularyItem(t *testing.T) {
	item, err := NewVocabularyItem("id-1", "  hello  ", " привет ", "General")
	require.NoError(t, err)
	assert.Equal(t, "hello", item.Word)
	assert.Equal(t, "привет", item.Translation)
	assert.Equal(t, "General", item.Category)
	assert.Equal(t, StatusNotStarted, item.Status)
	assert.False(t, item.DateAdded.IsZero())

	_, err = NewVocabularyItem("id-2", "   ", "", "General")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewVocabularyItem("id-3", "word", "", " ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestParseEntryList(t *testing.T) {
	entries, err := ParseEntryList("alpha\n  beta  \n\n\ngamma\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, entries)

	_, err = ParseEntryList("   \n\n \t \n")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = ParseEntryList("")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestSkillSubtaskRewrites(t *testing.T) {
	skill, err := NewSkill("sk-1", "Listening")
	require.NoError(t, err)
	require.Empty(t, skill.Subtasks)

	st1, err := NewSubtask("st-1", "Watch a talk")
	require.NoError(t, err)
	st2, err := NewSubtask("st-2", "Summarize it")
	require.NoError(t, err)

	skill.Subtasks = skill.WithSubtaskAdded(st1)
	skill.Subtasks = skill.WithSubtaskAdded(st2)
	require.Len(t, skill.Subtasks, 2)

	updated, err := skill.WithSubtaskStatus("st-1", StatusMastered)
	require.NoError(t, err)
	assert.Equal(t, StatusMastered, updated[0].Status)
	// original untouched
	assert.Equal(t, StatusNotStarted, skill.Subtasks[0].Status)

	_, err = skill.WithSubtaskStatus("st-1", "finished")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = skill.WithSubtaskStatus("missing", StatusMastered)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	remaining, err := skill.WithSubtaskRemoved("st-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "st-2", remaining[0].ID)

	_, err = skill.WithSubtaskRemoved("missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNewPortfolioEntry(t *testing.T) {
	entry, err := NewPortfolioEntry("p-1", "My cover", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, PortfolioYouTube, entry.Type)
	assert.Equal(t, "dQw4w9WgXcQ", entry.VideoID)
	assert.False(t, entry.IsTop)

	entry, err = NewPortfolioEntry("p-2", "My track", "https://soundcloud.com/artist/track")
	require.NoError(t, err)
	assert.Equal(t, PortfolioSoundCloud, entry.Type)
	assert.Empty(t, entry.VideoID)

	_, err = NewPortfolioEntry("p-3", "Blog post", "https://example.com/post")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewPortfolioEntry("p-4", "", "https://soundcloud.com/a/b")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestCategoryList(t *testing.T) {
	cats := DefaultCategories()
	assert.Equal(t, CategoryList{GeneralCategory}, cats)

	cats, err := cats.WithAdded("Verbs")
	require.NoError(t, err)
	assert.Equal(t, CategoryList{"General", "Verbs"}, cats)

	_, err = cats.WithAdded("Verbs")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = cats.WithAdded("  ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	// case-sensitive: "verbs" is a different category
	more, err := cats.WithAdded("verbs")
	require.NoError(t, err)
	assert.True(t, more.Contains("verbs"))

	_, err = cats.WithRemoved(GeneralCategory)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = cats.WithRemoved("Nouns")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	cats, err = cats.WithRemoved("Verbs")
	require.NoError(t, err)
	assert.Equal(t, CategoryList{GeneralCategory}, cats)
}

func TestCategoryListNormalized(t *testing.T) {
	// General restored to the front regardless of stored order
	assert.Equal(t, CategoryList{"General", "A", "B"}, CategoryList{"A", "General", "B"}.Normalized())
	// General injected when missing entirely
	assert.Equal(t, CategoryList{"General", "A"}, CategoryList{"A"}.Normalized())
	assert.Equal(t, CategoryList{"General"}, CategoryList(nil).Normalized())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.AchievementsEnabled)
	assert.False(t, s.ProgressEnabled)
	assert.False(t, s.MentorCodeEnabled)
	assert.True(t, s.FirstLogin)
	assert.NotNil(t, s.EarnedBadges)
	assert.Empty(t, s.EarnedBadges)
}
