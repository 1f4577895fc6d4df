package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

func ownerSession() identity.SessionContext  { return identity.NewOwnerSession("u-1") }
func viewerSession() identity.SessionContext { return identity.NewViewerSession("m-1", "u-1") }

func TestAddVocabularyBatch(t *testing.T) {
	vocab := newMemVocabRepo()
	settings := newMemSettingsRepo()
	cache := newMemCache()
	h := NewAddVocabularyHandler(vocab, settings, cache)
	ctx := context.Background()

	res, err := h.Handle(ctx, AddVocabularyCommand{
		Session:     ownerSession(),
		RawWords:    "apple\n banana \n\ncherry",
		Translation: "fruit",
		Category:    "General",
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "banana", res.Items[1].Word)
	assert.Equal(t, "fruit", res.Items[1].Translation)
	assert.Equal(t, progress.StatusNotStarted, res.Items[0].Status)
	assert.Contains(t, cache.invalidated, "u-1")
}

func TestAddVocabularyRejectsUnknownCategory(t *testing.T) {
	h := NewAddVocabularyHandler(newMemVocabRepo(), newMemSettingsRepo(), newMemCache())

	_, err := h.Handle(context.Background(), AddVocabularyCommand{
		Session:  ownerSession(),
		RawWords: "apple",
		Category: "Missing",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddVocabularyRejectsEmptyBatch(t *testing.T) {
	h := NewAddVocabularyHandler(newMemVocabRepo(), newMemSettingsRepo(), newMemCache())

	_, err := h.Handle(context.Background(), AddVocabularyCommand{
		Session:  ownerSession(),
		RawWords: "  \n \n",
		Category: "General",
	})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestMutationsRefuseViewerSession(t *testing.T) {
	vocab := newMemVocabRepo()
	settings := newMemSettingsRepo()
	skills := newMemSkillRepo()
	portfolio := newMemPortfolioRepo()
	cache := newMemCache()
	ctx := context.Background()

	_, err := NewAddVocabularyHandler(vocab, settings, cache).Handle(ctx, AddVocabularyCommand{
		Session: viewerSession(), RawWords: "x", Category: "General",
	})
	assert.ErrorIs(t, err, shared.ErrReadOnlySession)

	_, err = NewAddSkillsHandler(skills, cache).Handle(ctx, AddSkillsCommand{
		Session: viewerSession(), RawNames: "x",
	})
	assert.ErrorIs(t, err, shared.ErrReadOnlySession)

	err = NewUpdateStatusHandler(vocab, skills, cache).Handle(ctx, UpdateStatusCommand{
		Session: viewerSession(), Kind: KindVocabulary, ItemID: "id", RawStatus: "mastered",
	})
	assert.ErrorIs(t, err, shared.ErrReadOnlySession)

	err = NewDeleteItemHandler(vocab, skills, portfolio, cache).Handle(ctx, DeleteItemCommand{
		Session: viewerSession(), Kind: DeleteVocabulary, ItemID: "id",
	})
	assert.ErrorIs(t, err, shared.ErrReadOnlySession)

	_, err = NewCategoryHandler(settings, vocab, cache).HandleAdd(ctx, AddCategoryCommand{
		Session: viewerSession(), Name: "Verbs",
	})
	assert.ErrorIs(t, err, shared.ErrReadOnlySession)

	_, err = NewPortfolioHandler(portfolio, cache).HandleAdd(ctx, AddPortfolioCommand{
		Session: viewerSession(), Title: "t", Link: "https://youtu.be/dQw4w9WgXcQ",
	})
	assert.ErrorIs(t, err, shared.ErrReadOnlySession)

	// nothing reached storage and nothing was invalidated
	assert.Empty(t, vocab.items["u-1"])
	assert.Empty(t, cache.invalidated)
}

func TestUpdateStatusValidatesEnum(t *testing.T) {
	vocab := newMemVocabRepo()
	vocab.items["u-1"] = []progress.VocabularyItem{{ID: "v1", Word: "a", Category: "General", Status: progress.StatusNotStarted}}
	h := NewUpdateStatusHandler(vocab, newMemSkillRepo(), newMemCache())
	ctx := context.Background()

	err := h.Handle(ctx, UpdateStatusCommand{Session: ownerSession(), Kind: KindVocabulary, ItemID: "v1", RawStatus: "learned"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, progress.StatusNotStarted, vocab.items["u-1"][0].Status, "invalid status must not be stored")

	err = h.Handle(ctx, UpdateStatusCommand{Session: ownerSession(), Kind: KindVocabulary, ItemID: "v1", RawStatus: "mastered"})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusMastered, vocab.items["u-1"][0].Status)
}

func TestDeleteCategoryCascades(t *testing.T) {
	vocab := newMemVocabRepo()
	settings := newMemSettingsRepo()
	cache := newMemCache()
	h := NewCategoryHandler(settings, vocab, cache)
	ctx := context.Background()

	_, err := h.HandleAdd(ctx, AddCategoryCommand{Session: ownerSession(), Name: "Verbs"})
	require.NoError(t, err)

	vocab.items["u-1"] = []progress.VocabularyItem{
		{ID: "v1", Word: "run", Category: "Verbs"},
		{ID: "v2", Word: "cat", Category: "General"},
		{ID: "v3", Word: "jump", Category: "Verbs"},
	}

	res, err := h.HandleDelete(ctx, DeleteCategoryCommand{Session: ownerSession(), Name: "Verbs"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.WordsRemoved)
	require.Len(t, vocab.items["u-1"], 1)
	assert.Equal(t, "cat", vocab.items["u-1"][0].Word)
}

func TestDeleteGeneralCategoryRefused(t *testing.T) {
	h := NewCategoryHandler(newMemSettingsRepo(), newMemVocabRepo(), newMemCache())

	_, err := h.HandleDelete(context.Background(), DeleteCategoryCommand{Session: ownerSession(), Name: "General"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSubtaskLifecycle(t *testing.T) {
	skills := newMemSkillRepo()
	cache := newMemCache()
	sk, err := progress.NewSkill("sk-1", "Listening")
	require.NoError(t, err)
	skills.skills["u-1"] = []progress.Skill{sk}

	h := NewSubtaskHandler(skills, cache)
	ctx := context.Background()

	st, err := h.HandleAdd(ctx, AddSubtaskCommand{Session: ownerSession(), SkillID: "sk-1", Text: "Watch a talk"})
	require.NoError(t, err)

	err = h.HandleUpdateStatus(ctx, UpdateSubtaskStatusCommand{
		Session: ownerSession(), SkillID: "sk-1", SubtaskID: st.ID, RawStatus: "in_progress",
	})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusInProgress, skills.skills["u-1"][0].Subtasks[0].Status)

	err = h.HandleDelete(ctx, DeleteSubtaskCommand{Session: ownerSession(), SkillID: "sk-1", SubtaskID: st.ID})
	require.NoError(t, err)
	assert.Empty(t, skills.skills["u-1"][0].Subtasks)

	err = h.HandleDelete(ctx, DeleteSubtaskCommand{Session: ownerSession(), SkillID: "sk-1", SubtaskID: "missing"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestToggleTopEnforcesCap(t *testing.T) {
	portfolio := newMemPortfolioRepo()
	cache := newMemCache()
	h := NewPortfolioHandler(portfolio, cache)
	ctx := context.Background()

	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		portfolio.entries["u-1"] = append(portfolio.entries["u-1"], progress.PortfolioEntry{
			ID: id, Title: "t", Type: progress.PortfolioYouTube, IsTop: i < 3,
		})
	}

	_, err := h.HandleToggleTop(ctx, ToggleTopCommand{Session: ownerSession(), EntryID: "p4"})
	assert.ErrorIs(t, err, shared.ErrLimitExceeded)

	// unfeaturing always works, and frees a slot
	e, err := h.HandleToggleTop(ctx, ToggleTopCommand{Session: ownerSession(), EntryID: "p1"})
	require.NoError(t, err)
	assert.False(t, e.IsTop)

	e, err = h.HandleToggleTop(ctx, ToggleTopCommand{Session: ownerSession(), EntryID: "p4"})
	require.NoError(t, err)
	assert.True(t, e.IsTop)
}

func TestSettingsFlagToggle(t *testing.T) {
	settings := newMemSettingsRepo()
	cache := newMemCache()
	h := NewSettingsHandler(settings, cache)
	ctx := context.Background()

	s, err := h.HandleFlag(ctx, UpdateSettingsFlagCommand{Session: ownerSession(), Flag: FlagProgress, Value: true})
	require.NoError(t, err)
	assert.True(t, s.ProgressEnabled)

	_, err = h.HandleFlag(ctx, UpdateSettingsFlagCommand{Session: ownerSession(), Flag: "bogus", Value: true})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, h.HandleFirstLoginDone(ctx, ownerSession()))
	stored, _ := settings.GetSettings(ctx, "u-1")
	assert.False(t, stored.FirstLogin)
}
