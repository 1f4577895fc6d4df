package command

import (
	"context"
	"errors"
	"time"

	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// In-memory repository fakes shared by the command tests.

type memVocabRepo struct {
	items map[string][]progress.VocabularyItem // uid -> items
	fail  bool
}

func newMemVocabRepo() *memVocabRepo {
	return &memVocabRepo{items: map[string][]progress.VocabularyItem{}}
}

func (m *memVocabRepo) ListByUser(_ context.Context, uid string) ([]progress.VocabularyItem, error) {
	if m.fail {
		return nil, errors.New("store down")
	}
	return m.items[uid], nil
}

func (m *memVocabRepo) CreateBatch(_ context.Context, uid string, items []progress.VocabularyItem) error {
	if m.fail {
		return errors.New("store down")
	}
	m.items[uid] = append(m.items[uid], items...)
	return nil
}

func (m *memVocabRepo) UpdateStatus(_ context.Context, uid, itemID string, status progress.Status) error {
	for i, it := range m.items[uid] {
		if it.ID == itemID {
			m.items[uid][i].Status = status
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memVocabRepo) Delete(_ context.Context, uid, itemID string) error {
	for i, it := range m.items[uid] {
		if it.ID == itemID {
			m.items[uid] = append(m.items[uid][:i], m.items[uid][i+1:]...)
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memVocabRepo) DeleteByCategory(_ context.Context, uid, category string) (int64, error) {
	var kept []progress.VocabularyItem
	var removed int64
	for _, it := range m.items[uid] {
		if it.Category == category {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	m.items[uid] = kept
	return removed, nil
}

func (m *memVocabRepo) DeleteAllByUser(_ context.Context, uid string) error {
	delete(m.items, uid)
	return nil
}

type memSkillRepo struct {
	skills map[string][]progress.Skill
}

func newMemSkillRepo() *memSkillRepo {
	return &memSkillRepo{skills: map[string][]progress.Skill{}}
}

func (m *memSkillRepo) ListByUser(_ context.Context, uid string) ([]progress.Skill, error) {
	return m.skills[uid], nil
}

func (m *memSkillRepo) GetByID(_ context.Context, uid, skillID string) (*progress.Skill, error) {
	for i := range m.skills[uid] {
		if m.skills[uid][i].ID == skillID {
			sk := m.skills[uid][i]
			return &sk, nil
		}
	}
	return nil, shared.ErrItemNotFound
}

func (m *memSkillRepo) CreateBatch(_ context.Context, uid string, skills []progress.Skill) error {
	m.skills[uid] = append(m.skills[uid], skills...)
	return nil
}

func (m *memSkillRepo) UpdateStatus(_ context.Context, uid, skillID string, status progress.Status) error {
	for i := range m.skills[uid] {
		if m.skills[uid][i].ID == skillID {
			m.skills[uid][i].Status = status
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memSkillRepo) ReplaceSubtasks(_ context.Context, uid, skillID string, subtasks []progress.Subtask) error {
	for i := range m.skills[uid] {
		if m.skills[uid][i].ID == skillID {
			m.skills[uid][i].Subtasks = subtasks
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memSkillRepo) Delete(_ context.Context, uid, skillID string) error {
	for i := range m.skills[uid] {
		if m.skills[uid][i].ID == skillID {
			m.skills[uid] = append(m.skills[uid][:i], m.skills[uid][i+1:]...)
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memSkillRepo) DeleteAllByUser(_ context.Context, uid string) error {
	delete(m.skills, uid)
	return nil
}

type memPortfolioRepo struct {
	entries map[string][]progress.PortfolioEntry
}

func newMemPortfolioRepo() *memPortfolioRepo {
	return &memPortfolioRepo{entries: map[string][]progress.PortfolioEntry{}}
}

func (m *memPortfolioRepo) ListByUser(_ context.Context, uid string) ([]progress.PortfolioEntry, error) {
	return m.entries[uid], nil
}

func (m *memPortfolioRepo) GetByID(_ context.Context, uid, entryID string) (*progress.PortfolioEntry, error) {
	for i := range m.entries[uid] {
		if m.entries[uid][i].ID == entryID {
			e := m.entries[uid][i]
			return &e, nil
		}
	}
	return nil, shared.ErrItemNotFound
}

func (m *memPortfolioRepo) Create(_ context.Context, uid string, entry progress.PortfolioEntry) error {
	m.entries[uid] = append(m.entries[uid], entry)
	return nil
}

func (m *memPortfolioRepo) CountTop(_ context.Context, uid string) (int, error) {
	n := 0
	for _, e := range m.entries[uid] {
		if e.IsTop {
			n++
		}
	}
	return n, nil
}

func (m *memPortfolioRepo) SetTop(_ context.Context, uid, entryID string, top bool) error {
	for i := range m.entries[uid] {
		if m.entries[uid][i].ID == entryID {
			m.entries[uid][i].IsTop = top
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memPortfolioRepo) Delete(_ context.Context, uid, entryID string) error {
	for i := range m.entries[uid] {
		if m.entries[uid][i].ID == entryID {
			m.entries[uid] = append(m.entries[uid][:i], m.entries[uid][i+1:]...)
			return nil
		}
	}
	return shared.ErrItemNotFound
}

func (m *memPortfolioRepo) DeleteAllByUser(_ context.Context, uid string) error {
	delete(m.entries, uid)
	return nil
}

type memSettingsRepo struct {
	settings   map[string]progress.Settings
	categories map[string]progress.CategoryList
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{
		settings:   map[string]progress.Settings{},
		categories: map[string]progress.CategoryList{},
	}
}

func (m *memSettingsRepo) GetSettings(_ context.Context, uid string) (progress.Settings, error) {
	if s, ok := m.settings[uid]; ok {
		return s, nil
	}
	return progress.DefaultSettings(), nil
}

func (m *memSettingsRepo) SaveSettings(_ context.Context, uid string, s progress.Settings) error {
	m.settings[uid] = s
	return nil
}

func (m *memSettingsRepo) GetCategories(_ context.Context, uid string) (progress.CategoryList, error) {
	if c, ok := m.categories[uid]; ok {
		return c, nil
	}
	return progress.DefaultCategories(), nil
}

func (m *memSettingsRepo) SaveCategories(_ context.Context, uid string, list progress.CategoryList) error {
	m.categories[uid] = list
	return nil
}

func (m *memSettingsRepo) SaveEarnedBadges(_ context.Context, uid string, badgeIDs []string) error {
	s, ok := m.settings[uid]
	if !ok {
		s = progress.DefaultSettings()
	}
	s.EarnedBadges = badgeIDs
	m.settings[uid] = s
	return nil
}

func (m *memSettingsRepo) DeleteAllByUser(_ context.Context, uid string) error {
	delete(m.settings, uid)
	delete(m.categories, uid)
	return nil
}

// memCache records invalidations.
type memCache struct {
	invalidated []string
	snaps       map[string]*progress.Snapshot
}

func newMemCache() *memCache {
	return &memCache{snaps: map[string]*progress.Snapshot{}}
}

func (m *memCache) Get(_ context.Context, uid string) (*progress.Snapshot, error) {
	return m.snaps[uid], nil
}

func (m *memCache) Set(_ context.Context, snap *progress.Snapshot, _ time.Duration) error {
	m.snaps[snap.OwnerUID] = snap
	return nil
}

func (m *memCache) Invalidate(_ context.Context, uid string) error {
	m.invalidated = append(m.invalidated, uid)
	delete(m.snaps, uid)
	return nil
}
