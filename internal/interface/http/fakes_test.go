package http

import (
	"context"
	"fmt"
	"time"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/mentor"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/internal/domain/usage"
)

// In-memory backing fakes for full-stack handler tests.

type memVocabRepo struct {
	items map[string][]progress.VocabularyItem
}

func newMemVocabRepo() *memVocabRepo {
	return &memVocabRepo{items: map[string][]progress.VocabularyItem{}}
}

func (m *memVocabRepo) ListByUser(_ context.Context, uid string) ([]progress.VocabularyItem, error) {
	return m.items[uid], nil
}

func (m *memVocabRepo) CreateBatch(_ context.Context, uid string, items []progress.VocabularyItem) error {
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

func (m *memSettingsRepo) Get(ctx context.Context, uid string) ([]string, error) {
	s, err := m.GetSettings(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.EarnedBadges, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, uid string, badgeIDs []string) error {
	return m.SaveEarnedBadges(ctx, uid, badgeIDs)
}

type memMentorRepo struct {
	byCode map[string]mentor.Code
}

func newMemMentorRepo() *memMentorRepo {
	return &memMentorRepo{byCode: map[string]mentor.Code{}}
}

func (m *memMentorRepo) GetByCode(_ context.Context, code string) (*mentor.Code, error) {
	if c, ok := m.byCode[code]; ok {
		return &c, nil
	}
	return nil, shared.ErrCodeNotFound
}

func (m *memMentorRepo) GetByUser(_ context.Context, uid string) (*mentor.Code, error) {
	for _, c := range m.byCode {
		if c.UserID == uid {
			found := c
			return &found, nil
		}
	}
	return nil, shared.ErrCodeNotFound
}

func (m *memMentorRepo) Create(_ context.Context, c mentor.Code) error {
	if _, ok := m.byCode[c.Code]; ok {
		return shared.ErrAlreadyExists
	}
	m.byCode[c.Code] = c
	return nil
}

func (m *memMentorRepo) SetEnabled(_ context.Context, uid string, enabled bool) error {
	for code, c := range m.byCode {
		if c.UserID == uid {
			c.Enabled = enabled
			m.byCode[code] = c
			return nil
		}
	}
	return shared.ErrCodeNotFound
}

func (m *memMentorRepo) DeleteByUser(_ context.Context, uid string) error {
	for code, c := range m.byCode {
		if c.UserID == uid {
			delete(m.byCode, code)
		}
	}
	return nil
}

type memCounterStore struct {
	counts map[string]int64 // scope|dayKey -> count
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{counts: map[string]int64{}}
}

func counterKey(scope, dayKey string) string { return scope + "|" + dayKey }

func (m *memCounterStore) Get(_ context.Context, scope, dayKey string) (usage.Counter, error) {
	return usage.Counter{Scope: scope, DayKey: dayKey, Count: m.counts[counterKey(scope, dayKey)]}, nil
}

func (m *memCounterStore) CheckAndIncrement(
	_ context.Context,
	uid, dayKey string,
	userLimit, globalLimit int64,
) (int64, int64, usage.Reason, error) {
	globalKey := counterKey(usage.GlobalScope, dayKey)
	userKey := counterKey(usage.UserScope(uid), dayKey)

	if m.counts[globalKey] >= globalLimit {
		return m.counts[userKey], m.counts[globalKey], usage.ReasonGlobal, nil
	}
	if m.counts[userKey] >= userLimit {
		return m.counts[userKey], m.counts[globalKey], usage.ReasonUser, nil
	}
	m.counts[globalKey]++
	m.counts[userKey]++
	return m.counts[userKey], m.counts[globalKey], usage.ReasonOK, nil
}

func (m *memCounterStore) DeleteBefore(_ context.Context, cutoff string) (int64, error) {
	return 0, nil
}

// fakeAuth is an in-memory identity.AuthProvider.
type fakeAuth struct {
	users    map[string]string // email -> uid
	password map[string]string // uid -> password
	sessions map[string]string // token -> uid
	nextID   int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:    map[string]string{},
		password: map[string]string{},
		sessions: map[string]string{},
	}
}

func (f *fakeAuth) SignUp(_ context.Context, email, password string) (*identity.User, *identity.Session, error) {
	if _, ok := f.users[email]; ok {
		return nil, nil, shared.ErrEmailInUse
	}
	f.nextID++
	uid := fmt.Sprintf("user-%d", f.nextID)
	f.users[email] = uid
	f.password[uid] = password
	token := fmt.Sprintf("token-%d", f.nextID)
	f.sessions[token] = uid
	user := &identity.User{UID: uid, Email: email, CreatedAt: time.Now()}
	return user, &identity.Session{Token: token, UID: uid, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*identity.User, *identity.Session, error) {
	uid, ok := f.users[email]
	if !ok || f.password[uid] != password {
		return nil, nil, shared.ErrInvalidCredentials
	}
	token := fmt.Sprintf("token-%s-%d", uid, len(f.sessions))
	f.sessions[token] = uid
	user := &identity.User{UID: uid, Email: email, LastLoginAt: time.Now()}
	return user, &identity.Session{Token: token, UID: uid, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeAuth) UserBySession(_ context.Context, token string) (*identity.User, error) {
	uid, ok := f.sessions[token]
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	return &identity.User{UID: uid}, nil
}

func (f *fakeAuth) IssueActionCode(_ context.Context, email string, _ identity.ActionCodeKind) (string, error) {
	if _, ok := f.users[email]; !ok {
		return "", shared.ErrUserNotFound
	}
	return "action-code", nil
}

func (f *fakeAuth) ApplyActionCode(context.Context, string, string) error { return nil }

func (f *fakeAuth) UpdatePassword(_ context.Context, uid, current, next string) error {
	if f.password[uid] != current {
		return shared.ErrInvalidCredentials
	}
	f.password[uid] = next
	return nil
}

func (f *fakeAuth) DeleteUser(_ context.Context, uid string) error {
	delete(f.password, uid)
	for token, sessionUID := range f.sessions {
		if sessionUID == uid {
			delete(f.sessions, token)
		}
	}
	for email, userUID := range f.users {
		if userUID == uid {
			delete(f.users, email)
		}
	}
	return nil
}
