package progress

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════
// Defined here in the domain layer; implemented by infrastructure.
// All collections are scoped by owner uid - there is no cross-user access
// at the repository level.

// VocabularyRepository persists vocabulary items.
type VocabularyRepository interface {
	ListByUser(ctx context.Context, uid string) ([]VocabularyItem, error)

	// CreateBatch inserts all items atomically: either the whole batch is
	// stored or none of it is.
	CreateBatch(ctx context.Context, uid string, items []VocabularyItem) error

	UpdateStatus(ctx context.Context, uid, itemID string, status Status) error
	Delete(ctx context.Context, uid, itemID string) error

	// DeleteByCategory removes every item in the category and returns how
	// many were removed. Used by the category-delete cascade.
	DeleteByCategory(ctx context.Context, uid, category string) (int64, error)

	DeleteAllByUser(ctx context.Context, uid string) error
}

// SkillRepository persists skills with their embedded subtask lists.
type SkillRepository interface {
	ListByUser(ctx context.Context, uid string) ([]Skill, error)
	GetByID(ctx context.Context, uid, skillID string) (*Skill, error)

	// CreateBatch inserts all skills atomically.
	CreateBatch(ctx context.Context, uid string, skills []Skill) error

	UpdateStatus(ctx context.Context, uid, skillID string, status Status) error

	// ReplaceSubtasks overwrites the full subtask list of a skill. Subtask
	// mutations always rewrite the whole list.
	ReplaceSubtasks(ctx context.Context, uid, skillID string, subtasks []Subtask) error

	Delete(ctx context.Context, uid, skillID string) error
	DeleteAllByUser(ctx context.Context, uid string) error
}

// PortfolioRepository persists portfolio entries.
type PortfolioRepository interface {
	ListByUser(ctx context.Context, uid string) ([]PortfolioEntry, error)
	GetByID(ctx context.Context, uid, entryID string) (*PortfolioEntry, error)
	Create(ctx context.Context, uid string, entry PortfolioEntry) error

	// CountTop returns how many entries are currently featured.
	CountTop(ctx context.Context, uid string) (int, error)

	SetTop(ctx context.Context, uid, entryID string, top bool) error
	Delete(ctx context.Context, uid, entryID string) error
	DeleteAllByUser(ctx context.Context, uid string) error
}

// SettingsRepository persists the per-user settings document and the
// category list. A missing document is materialized with defaults on read.
type SettingsRepository interface {
	GetSettings(ctx context.Context, uid string) (Settings, error)
	SaveSettings(ctx context.Context, uid string, s Settings) error

	GetCategories(ctx context.Context, uid string) (CategoryList, error)
	SaveCategories(ctx context.Context, uid string, list CategoryList) error

	// SaveEarnedBadges overwrites the stored earned set wholesale.
	SaveEarnedBadges(ctx context.Context, uid string, badgeIDs []string) error

	DeleteAllByUser(ctx context.Context, uid string) error
}

// SnapshotCache caches assembled snapshots. A cache miss is reported as a
// nil snapshot with a nil error; infrastructure failures are returned as
// errors and treated by callers as misses.
type SnapshotCache interface {
	Get(ctx context.Context, uid string) (*Snapshot, error)
	Set(ctx context.Context, snap *Snapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, uid string) error
}
