package command

import (
	"context"
	"fmt"
	"time"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/mentor"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE ACCOUNT COMMAND
// Tears down every user-owned collection, the mentor code, the cached
// snapshot, and finally the auth account itself. Domain data goes first so
// a partial failure leaves a still-deletable account rather than orphaned
// data with no owner.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteAccountHandler handles account teardown.
type DeleteAccountHandler struct {
	vocabRepo     progress.VocabularyRepository
	skillRepo     progress.SkillRepository
	portfolioRepo progress.PortfolioRepository
	settingsRepo  progress.SettingsRepository
	mentorRepo    mentor.Repository
	cache         progress.SnapshotCache
	auth          identity.AuthProvider
	events        shared.EventPublisher
}

// NewDeleteAccountHandler creates the handler.
func NewDeleteAccountHandler(
	vocabRepo progress.VocabularyRepository,
	skillRepo progress.SkillRepository,
	portfolioRepo progress.PortfolioRepository,
	settingsRepo progress.SettingsRepository,
	mentorRepo mentor.Repository,
	cache progress.SnapshotCache,
	auth identity.AuthProvider,
	events shared.EventPublisher,
) *DeleteAccountHandler {
	return &DeleteAccountHandler{
		vocabRepo:     vocabRepo,
		skillRepo:     skillRepo,
		portfolioRepo: portfolioRepo,
		settingsRepo:  settingsRepo,
		mentorRepo:    mentorRepo,
		cache:         cache,
		auth:          auth,
		events:        events,
	}
}

// Handle deletes everything the user owns. Usage counters are left for the
// retention job: they expire by day key and carry no personal content
// beyond the uid-derived scope.
func (h *DeleteAccountHandler) Handle(ctx context.Context, session identity.SessionContext) error {
	if err := session.RequireMutable(); err != nil {
		return err
	}
	uid := session.OwnerUID

	if err := h.vocabRepo.DeleteAllByUser(ctx, uid); err != nil {
		return fmt.Errorf("delete_account: vocabulary: %w", err)
	}
	if err := h.skillRepo.DeleteAllByUser(ctx, uid); err != nil {
		return fmt.Errorf("delete_account: skills: %w", err)
	}
	if err := h.portfolioRepo.DeleteAllByUser(ctx, uid); err != nil {
		return fmt.Errorf("delete_account: portfolio: %w", err)
	}
	if err := h.settingsRepo.DeleteAllByUser(ctx, uid); err != nil {
		return fmt.Errorf("delete_account: settings: %w", err)
	}
	if err := h.mentorRepo.DeleteByUser(ctx, uid); err != nil {
		return fmt.Errorf("delete_account: mentor code: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, uid)

	if err := h.auth.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("delete_account: auth: %w", err)
	}

	if h.events != nil {
		h.events.Publish(shared.AccountDeleted{UID: uid, At: time.Now().UTC()})
	}
	return nil
}
