// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/language-study/study-hub/internal/domain/badge"
	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SNAPSHOT QUERY
// Assembles the full study state of the session's owner: the four
// collections, settings, and the freshly evaluated badge set. Collection
// load failures degrade to empty lists instead of failing the whole view;
// such partial snapshots are never cached and never drive badge writes.
// ══════════════════════════════════════════════════════════════════════════════

// EarnedBadgeDTO is one badge in the rendered earned list.
type EarnedBadgeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// SnapshotView is the assembled view returned to the interface layer.
type SnapshotView struct {
	Snapshot *progress.Snapshot `json:"snapshot"`

	VocabularyStats progress.StatusCounts  `json:"vocabularyStats"`
	SkillStats      progress.StatusCounts  `json:"skillStats"`
	PortfolioStats  progress.PortfolioStats `json:"portfolioStats"`

	// EarnedBadges is the current evaluated set in rule-table order.
	EarnedBadges []EarnedBadgeDTO `json:"earnedBadges"`

	// NewBadges are badges earned since the last persisted set, in
	// rule-table order. Only populated for owner sessions.
	NewBadges []EarnedBadgeDTO `json:"newBadges,omitempty"`

	// ReadOnly mirrors the session: set for mentor views.
	ReadOnly bool `json:"readOnly"`

	// ReviewEnabled mirrors the session: set for mentor views whose owner
	// opted in to review mode.
	ReviewEnabled bool `json:"reviewEnabled,omitempty"`

	// FromCache is set when the snapshot was served from the cache.
	FromCache bool `json:"fromCache"`
}

// GetSnapshotHandler assembles snapshots.
type GetSnapshotHandler struct {
	vocabRepo     progress.VocabularyRepository
	skillRepo     progress.SkillRepository
	portfolioRepo progress.PortfolioRepository
	settingsRepo  progress.SettingsRepository
	earned        badge.EarnedBadgeStore
	cache         progress.SnapshotCache
	badges        *badge.Engine
	events        shared.EventPublisher
	log           *logger.Logger
	now           func() time.Time
}

// NewGetSnapshotHandler creates the handler. cache, events, and log may be
// nil.
func NewGetSnapshotHandler(
	vocabRepo progress.VocabularyRepository,
	skillRepo progress.SkillRepository,
	portfolioRepo progress.PortfolioRepository,
	settingsRepo progress.SettingsRepository,
	earned badge.EarnedBadgeStore,
	cache progress.SnapshotCache,
	badges *badge.Engine,
	events shared.EventPublisher,
	log *logger.Logger,
) *GetSnapshotHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetSnapshotHandler{
		vocabRepo:     vocabRepo,
		skillRepo:     skillRepo,
		portfolioRepo: portfolioRepo,
		settingsRepo:  settingsRepo,
		earned:        earned,
		cache:         cache,
		badges:        badges,
		events:        events,
		log:           log,
		now:           time.Now,
	}
}

// Handle returns the owner's snapshot view, from cache when fresh.
func (h *GetSnapshotHandler) Handle(ctx context.Context, session identity.SessionContext) (*SnapshotView, error) {
	if session.OwnerUID == "" {
		return nil, shared.ErrNoAuthUser
	}

	if snap := h.fromCache(ctx, session.OwnerUID); snap != nil {
		view := h.buildView(snap, session, nil)
		view.FromCache = true
		return view, nil
	}

	snap := h.load(ctx, session.OwnerUID)

	var newBadges []string
	if !snap.Partial {
		newBadges = h.evaluateBadges(ctx, snap, session)
		if h.cache != nil {
			if err := h.cache.Set(ctx, snap, progress.SnapshotMaxAge); err != nil {
				h.log.Warn("snapshot cache write failed", logger.UserID(session.OwnerUID), logger.Err(err))
			}
		}
	}

	return h.buildView(snap, session, newBadges), nil
}

// fromCache returns a fresh cached snapshot or nil. Cache failures read as
// misses.
func (h *GetSnapshotHandler) fromCache(ctx context.Context, uid string) *progress.Snapshot {
	if h.cache == nil {
		return nil
	}
	snap, err := h.cache.Get(ctx, uid)
	if err != nil {
		h.log.Warn("snapshot cache read failed", logger.UserID(uid), logger.Err(err))
		return nil
	}
	if snap == nil || snap.IsStale(h.now()) {
		return nil
	}
	return snap
}

// load assembles a snapshot from the stores. Each collection degrades
// independently to an empty list; settings degrade to defaults.
func (h *GetSnapshotHandler) load(ctx context.Context, uid string) *progress.Snapshot {
	snap := &progress.Snapshot{OwnerUID: uid, LoadedAt: h.now()}

	var err error
	if snap.Vocabulary, err = h.vocabRepo.ListByUser(ctx, uid); err != nil {
		h.log.Error("vocabulary load failed", logger.UserID(uid), logger.Err(err))
		snap.Vocabulary, snap.Partial = []progress.VocabularyItem{}, true
	}
	if snap.Skills, err = h.skillRepo.ListByUser(ctx, uid); err != nil {
		h.log.Error("skills load failed", logger.UserID(uid), logger.Err(err))
		snap.Skills, snap.Partial = []progress.Skill{}, true
	}
	if snap.Portfolio, err = h.portfolioRepo.ListByUser(ctx, uid); err != nil {
		h.log.Error("portfolio load failed", logger.UserID(uid), logger.Err(err))
		snap.Portfolio, snap.Partial = []progress.PortfolioEntry{}, true
	}
	if snap.Categories, err = h.settingsRepo.GetCategories(ctx, uid); err != nil {
		h.log.Error("categories load failed", logger.UserID(uid), logger.Err(err))
		snap.Categories, snap.Partial = progress.DefaultCategories(), true
	}
	snap.Categories = snap.Categories.Normalized()

	if snap.Settings, err = h.settingsRepo.GetSettings(ctx, uid); err != nil {
		h.log.Error("settings load failed", logger.UserID(uid), logger.Err(err))
		snap.Settings, snap.Partial = progress.DefaultSettings(), true
	}
	return snap
}

// evaluateBadges recomputes the earned set and, for owner sessions,
// persists it and announces newly earned badges. Viewer sessions see the
// recomputed set but never write anything.
func (h *GetSnapshotHandler) evaluateBadges(ctx context.Context, snap *progress.Snapshot, session identity.SessionContext) []string {
	prev := badge.SetFromIDs(snap.Settings.EarnedBadges)
	curr := h.badges.Evaluate(snap)
	delta := h.badges.EarnDelta(prev, curr)

	snap.Settings.EarnedBadges = curr.IDs()

	if session.ReadOnly {
		return nil
	}

	// persistence is best-effort: a failed write just means the same
	// delta is announced again on the next load
	if err := h.earned.Save(ctx, snap.OwnerUID, snap.Settings.EarnedBadges); err != nil {
		h.log.Warn("earned badge save failed", logger.UserID(snap.OwnerUID), logger.Err(err))
		return delta
	}

	if h.events != nil {
		for _, id := range delta {
			h.events.Publish(shared.BadgeEarned{UID: snap.OwnerUID, BadgeID: id, At: h.now()})
		}
	}
	return delta
}

func (h *GetSnapshotHandler) buildView(snap *progress.Snapshot, session identity.SessionContext, newBadges []string) *SnapshotView {
	return &SnapshotView{
		Snapshot:        snap,
		VocabularyStats: snap.VocabularyStats(),
		SkillStats:      snap.SkillStats(),
		PortfolioStats:  snap.PortfolioSummary(),
		EarnedBadges:    badgeDTOs(snap.Settings.EarnedBadges),
		NewBadges:       badgeDTOs(newBadges),
		ReadOnly:        session.ReadOnly,
		ReviewEnabled:   session.ReviewEnabled,
	}
}

func badgeDTOs(ids []string) []EarnedBadgeDTO {
	if len(ids) == 0 {
		return nil
	}
	out := make([]EarnedBadgeDTO, 0, len(ids))
	for _, id := range ids {
		if b, ok := badge.ByID(id); ok {
			out = append(out, EarnedBadgeDTO{ID: b.ID, Name: b.Name, Description: b.Description, Icon: b.Icon})
		}
	}
	return out
}
