package command

import (
	"context"
	"fmt"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE ITEM COMMAND
// Removes a single vocabulary item, skill, or portfolio entry.
// ══════════════════════════════════════════════════════════════════════════════

// DeletableKind extends ItemKind with portfolio entries.
type DeletableKind string

const (
	// DeleteVocabulary - remove a vocabulary item.
	DeleteVocabulary DeletableKind = "vocabulary"
	// DeleteSkill - remove a skill and its subtasks.
	DeleteSkill DeletableKind = "skill"
	// DeletePortfolio - remove a portfolio entry.
	DeletePortfolio DeletableKind = "portfolio"
)

// DeleteItemCommand identifies the item to remove.
type DeleteItemCommand struct {
	Session identity.SessionContext
	Kind    DeletableKind
	ItemID  string
}

// DeleteItemHandler handles DeleteItemCommand.
type DeleteItemHandler struct {
	vocabRepo     progress.VocabularyRepository
	skillRepo     progress.SkillRepository
	portfolioRepo progress.PortfolioRepository
	cache         progress.SnapshotCache
}

// NewDeleteItemHandler creates the handler.
func NewDeleteItemHandler(
	vocabRepo progress.VocabularyRepository,
	skillRepo progress.SkillRepository,
	portfolioRepo progress.PortfolioRepository,
	cache progress.SnapshotCache,
) *DeleteItemHandler {
	return &DeleteItemHandler{
		vocabRepo:     vocabRepo,
		skillRepo:     skillRepo,
		portfolioRepo: portfolioRepo,
		cache:         cache,
	}
}

// Handle removes the item. Deleting an absent item is a not-found error.
func (h *DeleteItemHandler) Handle(ctx context.Context, cmd DeleteItemCommand) error {
	if err := cmd.Session.RequireMutable(); err != nil {
		return err
	}
	if cmd.ItemID == "" {
		return shared.NewDomainError("progress", "DeleteItem", shared.ErrEmptyValue, "item id is required")
	}

	var err error
	switch cmd.Kind {
	case DeleteVocabulary:
		err = h.vocabRepo.Delete(ctx, cmd.Session.OwnerUID, cmd.ItemID)
	case DeleteSkill:
		err = h.skillRepo.Delete(ctx, cmd.Session.OwnerUID, cmd.ItemID)
	case DeletePortfolio:
		err = h.portfolioRepo.Delete(ctx, cmd.Session.OwnerUID, cmd.ItemID)
	default:
		return shared.NewDomainError("progress", "DeleteItem", shared.ErrInvalidInput, "unknown item kind")
	}
	if err != nil {
		return fmt.Errorf("delete_item: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return nil
}
