package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/language-study/study-hub/internal/domain/badge"
	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/mentor"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// Fakes local to the query tests.

type fakeStores struct {
	vocab     []progress.VocabularyItem
	skills    []progress.Skill
	portfolio []progress.PortfolioEntry
	cats      progress.CategoryList
	settings  progress.Settings

	failVocab     bool
	failSettings  bool
	savedBadges   [][]string
	failBadgeSave bool
}

func newFakeStores() *fakeStores {
	return &fakeStores{cats: progress.DefaultCategories(), settings: progress.DefaultSettings()}
}

func (f *fakeStores) ListByUser(_ context.Context, _ string) ([]progress.VocabularyItem, error) {
	if f.failVocab {
		return nil, errors.New("store down")
	}
	return f.vocab, nil
}

type skillLister fakeStores

func (f *skillLister) ListByUser(_ context.Context, _ string) ([]progress.Skill, error) {
	return f.skills, nil
}

func (f *skillLister) GetByID(_ context.Context, _, _ string) (*progress.Skill, error) {
	return nil, shared.ErrItemNotFound
}

func (f *skillLister) CreateBatch(_ context.Context, _ string, _ []progress.Skill) error { return nil }

func (f *skillLister) UpdateStatus(_ context.Context, _, _ string, _ progress.Status) error {
	return nil
}

func (f *skillLister) ReplaceSubtasks(_ context.Context, _, _ string, _ []progress.Subtask) error {
	return nil
}

func (f *skillLister) Delete(_ context.Context, _, _ string) error        { return nil }
func (f *skillLister) DeleteAllByUser(_ context.Context, _ string) error { return nil }

type portfolioLister fakeStores

func (f *portfolioLister) ListByUser(_ context.Context, _ string) ([]progress.PortfolioEntry, error) {
	return f.portfolio, nil
}

func (f *portfolioLister) GetByID(_ context.Context, _, _ string) (*progress.PortfolioEntry, error) {
	return nil, shared.ErrItemNotFound
}

func (f *portfolioLister) Create(_ context.Context, _ string, _ progress.PortfolioEntry) error {
	return nil
}

func (f *portfolioLister) CountTop(_ context.Context, _ string) (int, error) { return 0, nil }
func (f *portfolioLister) SetTop(_ context.Context, _, _ string, _ bool) error {
	return nil
}
func (f *portfolioLister) Delete(_ context.Context, _, _ string) error        { return nil }
func (f *portfolioLister) DeleteAllByUser(_ context.Context, _ string) error { return nil }

func (f *fakeStores) CreateBatch(_ context.Context, _ string, _ []progress.VocabularyItem) error {
	return nil
}

func (f *fakeStores) UpdateStatus(_ context.Context, _, _ string, _ progress.Status) error {
	return nil
}

func (f *fakeStores) Delete(_ context.Context, _, _ string) error { return nil }

func (f *fakeStores) DeleteByCategory(_ context.Context, _, _ string) (int64, error) { return 0, nil }

func (f *fakeStores) DeleteAllByUser(_ context.Context, _ string) error { return nil }

type settingsStore fakeStores

func (f *settingsStore) GetSettings(_ context.Context, _ string) (progress.Settings, error) {
	if f.failSettings {
		return progress.Settings{}, errors.New("store down")
	}
	return f.settings, nil
}

func (f *settingsStore) SaveSettings(_ context.Context, _ string, s progress.Settings) error {
	f.settings = s
	return nil
}

func (f *settingsStore) GetCategories(_ context.Context, _ string) (progress.CategoryList, error) {
	return f.cats, nil
}

func (f *settingsStore) SaveCategories(_ context.Context, _ string, list progress.CategoryList) error {
	f.cats = list
	return nil
}

func (f *settingsStore) SaveEarnedBadges(_ context.Context, _ string, ids []string) error {
	if f.failBadgeSave {
		return errors.New("store down")
	}
	f.savedBadges = append(f.savedBadges, ids)
	f.settings.EarnedBadges = ids
	return nil
}

func (f *settingsStore) DeleteAllByUser(_ context.Context, _ string) error { return nil }

func (f *settingsStore) Get(ctx context.Context, uid string) ([]string, error) {
	s, err := f.GetSettings(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.EarnedBadges, nil
}

func (f *settingsStore) Save(ctx context.Context, uid string, ids []string) error {
	return f.SaveEarnedBadges(ctx, uid, ids)
}

type fakeCache struct {
	snaps map[string]*progress.Snapshot
	sets  int
}

func newFakeCache() *fakeCache { return &fakeCache{snaps: map[string]*progress.Snapshot{}} }

func (c *fakeCache) Get(_ context.Context, uid string) (*progress.Snapshot, error) {
	return c.snaps[uid], nil
}

func (c *fakeCache) Set(_ context.Context, snap *progress.Snapshot, _ time.Duration) error {
	c.sets++
	c.snaps[snap.OwnerUID] = snap
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, uid string) error {
	delete(c.snaps, uid)
	return nil
}

type eventRecorder struct {
	events []shared.Event
}

func (r *eventRecorder) Publish(e shared.Event) { r.events = append(r.events, e) }

func newSnapshotHandler(f *fakeStores, cache *fakeCache, rec *eventRecorder) *GetSnapshotHandler {
	var pub shared.EventPublisher
	if rec != nil {
		pub = rec
	}
	return NewGetSnapshotHandler(
		f,
		(*skillLister)(f),
		(*portfolioLister)(f),
		(*settingsStore)(f),
		(*settingsStore)(f),
		cache,
		badge.NewEngine(),
		pub,
		nil,
	)
}

func TestGetSnapshotAssemblesView(t *testing.T) {
	f := newFakeStores()
	f.vocab = []progress.VocabularyItem{
		{ID: "v1", Word: "a", Category: "General", Status: progress.StatusMastered},
	}
	h := newSnapshotHandler(f, newFakeCache(), nil)

	view, err := h.Handle(context.Background(), identity.NewOwnerSession("u-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, view.VocabularyStats.Total)
	assert.Equal(t, 1, view.VocabularyStats.Mastered)
	assert.False(t, view.ReadOnly)
	assert.False(t, view.FromCache)
	assert.Equal(t, progress.CategoryList{"General"}, view.Snapshot.Categories)
}

func TestGetSnapshotCachesAndReuses(t *testing.T) {
	f := newFakeStores()
	cache := newFakeCache()
	h := newSnapshotHandler(f, cache, nil)
	ctx := context.Background()
	session := identity.NewOwnerSession("u-1")

	_, err := h.Handle(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	view, err := h.Handle(ctx, session)
	require.NoError(t, err)
	assert.True(t, view.FromCache)
	assert.Equal(t, 1, cache.sets, "fresh cache entry must be reused")
}

func TestGetSnapshotIgnoresStaleCache(t *testing.T) {
	f := newFakeStores()
	cache := newFakeCache()
	cache.snaps["u-1"] = &progress.Snapshot{
		OwnerUID: "u-1",
		LoadedAt: time.Now().Add(-10 * time.Minute),
	}
	h := newSnapshotHandler(f, cache, nil)

	view, err := h.Handle(context.Background(), identity.NewOwnerSession("u-1"))
	require.NoError(t, err)
	assert.False(t, view.FromCache)
}

func TestGetSnapshotDegradesPartially(t *testing.T) {
	f := newFakeStores()
	f.failVocab = true
	f.skills = []progress.Skill{{ID: "s1", Name: "x", Status: progress.StatusMastered}}
	cache := newFakeCache()
	h := newSnapshotHandler(f, cache, nil)

	view, err := h.Handle(context.Background(), identity.NewOwnerSession("u-1"))
	require.NoError(t, err, "a failed collection must not fail the view")
	assert.True(t, view.Snapshot.Partial)
	assert.Empty(t, view.Snapshot.Vocabulary)
	assert.Equal(t, 1, view.SkillStats.Total)

	// partial snapshots are never cached and never persist badges
	assert.Zero(t, cache.sets)
	assert.Empty(t, f.savedBadges)
}

func TestGetSnapshotPersistsBadgesAndAnnounces(t *testing.T) {
	f := newFakeStores()
	f.vocab = []progress.VocabularyItem{
		{ID: "v1", Word: "a", Category: "General", Status: progress.StatusMastered},
	}
	rec := &eventRecorder{}
	h := newSnapshotHandler(f, newFakeCache(), rec)

	view, err := h.Handle(context.Background(), identity.NewOwnerSession("u-1"))
	require.NoError(t, err)

	require.NotEmpty(t, view.NewBadges)
	assert.Equal(t, "first_word", view.NewBadges[0].ID)
	require.NotEmpty(t, f.savedBadges)
	assert.Contains(t, f.savedBadges[len(f.savedBadges)-1], "first_mastered_word")
	assert.Len(t, rec.events, len(view.NewBadges))
}

func TestGetSnapshotViewerNeverWrites(t *testing.T) {
	f := newFakeStores()
	f.vocab = []progress.VocabularyItem{{ID: "v1", Word: "a", Category: "General"}}
	rec := &eventRecorder{}
	h := newSnapshotHandler(f, newFakeCache(), rec)

	view, err := h.Handle(context.Background(), identity.NewViewerSession("mentor", "u-1"))
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)
	assert.NotEmpty(t, view.EarnedBadges, "viewer still sees the evaluated set")
	assert.Empty(t, view.NewBadges)
	assert.Empty(t, f.savedBadges)
	assert.Empty(t, rec.events)
}

func TestGetSnapshotRequiresOwner(t *testing.T) {
	h := newSnapshotHandler(newFakeStores(), newFakeCache(), nil)
	_, err := h.Handle(context.Background(), identity.SessionContext{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

// ─────────────────────────────────────────────────────────────────────────────
// Mentor view resolution
// ─────────────────────────────────────────────────────────────────────────────

type memMentorRepo struct {
	codes map[string]mentor.Code
}

func (m *memMentorRepo) GetByCode(_ context.Context, code string) (*mentor.Code, error) {
	if c, ok := m.codes[code]; ok {
		return &c, nil
	}
	return nil, shared.ErrCodeNotFound
}

func (m *memMentorRepo) GetByUser(_ context.Context, uid string) (*mentor.Code, error) {
	for _, c := range m.codes {
		if c.UserID == uid {
			return &c, nil
		}
	}
	return nil, shared.ErrCodeNotFound
}

func (m *memMentorRepo) Create(_ context.Context, c mentor.Code) error {
	m.codes[c.Code] = c
	return nil
}

func (m *memMentorRepo) SetEnabled(_ context.Context, uid string, enabled bool) error {
	for k, c := range m.codes {
		if c.UserID == uid {
			c.Enabled = enabled
			m.codes[k] = c
			return nil
		}
	}
	return shared.ErrCodeNotFound
}

func (m *memMentorRepo) DeleteByUser(_ context.Context, uid string) error {
	for k, c := range m.codes {
		if c.UserID == uid {
			delete(m.codes, k)
		}
	}
	return nil
}

func TestResolveMentorView(t *testing.T) {
	f := newFakeStores()
	f.settings.ProgressEnabled = true
	repo := &memMentorRepo{codes: map[string]mentor.Code{
		"AB12C": {Code: "AB12C", UserID: "student", Enabled: true},
	}}
	h := NewResolveMentorViewHandler(mentor.NewService(repo, nil), (*settingsStore)(f))
	ctx := context.Background()

	session, err := h.Handle(ctx, "mentor", "ab12c")
	require.NoError(t, err)
	assert.True(t, session.ReadOnly)
	assert.Equal(t, "student", session.OwnerUID)
	assert.Equal(t, "mentor", session.ActorUID)
	assert.True(t, session.ReviewEnabled)

	// the review-mode setting gates a feature inside the view, never the
	// view itself
	f.settings.ProgressEnabled = false
	session, err = h.Handle(ctx, "mentor", "AB12C")
	require.NoError(t, err)
	assert.True(t, session.ReadOnly)
	assert.False(t, session.ReviewEnabled)

	// a settings read failure hides review mode, nothing else
	f.failSettings = true
	session, err = h.Handle(ctx, "mentor", "AB12C")
	require.NoError(t, err)
	assert.Equal(t, "student", session.OwnerUID)
	assert.False(t, session.ReviewEnabled)
	f.failSettings = false

	_, err = h.Handle(ctx, "mentor", "nope!")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = h.Handle(ctx, "mentor", "ZZZZZ")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
