package command

import (
	"context"
	"fmt"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE STATUS COMMAND
// Moves a vocabulary item or a skill to a new progress status. The raw
// status is validated against the enum before any storage access.
// ══════════════════════════════════════════════════════════════════════════════

// ItemKind selects the collection the item lives in.
type ItemKind string

const (
	// KindVocabulary - a vocabulary item.
	KindVocabulary ItemKind = "vocabulary"
	// KindSkill - a skill.
	KindSkill ItemKind = "skill"
)

// UpdateStatusCommand carries the status change.
type UpdateStatusCommand struct {
	Session identity.SessionContext
	Kind    ItemKind
	ItemID  string

	// RawStatus is validated; unknown values are rejected, never stored.
	RawStatus string
}

// Validate checks the command shape.
func (c UpdateStatusCommand) Validate() error {
	if c.ItemID == "" {
		return shared.NewDomainError("progress", "UpdateStatus", shared.ErrEmptyValue, "item id is required")
	}
	switch c.Kind {
	case KindVocabulary, KindSkill:
		return nil
	default:
		return shared.NewDomainError("progress", "UpdateStatus", shared.ErrInvalidInput, "unknown item kind")
	}
}

// UpdateStatusHandler handles UpdateStatusCommand.
type UpdateStatusHandler struct {
	vocabRepo progress.VocabularyRepository
	skillRepo progress.SkillRepository
	cache     progress.SnapshotCache
}

// NewUpdateStatusHandler creates the handler.
func NewUpdateStatusHandler(
	vocabRepo progress.VocabularyRepository,
	skillRepo progress.SkillRepository,
	cache progress.SnapshotCache,
) *UpdateStatusHandler {
	return &UpdateStatusHandler{vocabRepo: vocabRepo, skillRepo: skillRepo, cache: cache}
}

// Handle applies the status change.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) error {
	if err := cmd.Session.RequireMutable(); err != nil {
		return err
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	status, err := progress.ParseStatus(cmd.RawStatus)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case KindVocabulary:
		err = h.vocabRepo.UpdateStatus(ctx, cmd.Session.OwnerUID, cmd.ItemID, status)
	case KindSkill:
		err = h.skillRepo.UpdateStatus(ctx, cmd.Session.OwnerUID, cmd.ItemID, status)
	}
	if err != nil {
		return fmt.Errorf("update_status: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return nil
}
