package command

import (
	"context"
	"fmt"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY COMMANDS
// The category list is a small user-scoped document. Adding is a plain
// append with a duplicate check; deleting cascades to the words in the
// category. "General" is protected and survives everything.
// ══════════════════════════════════════════════════════════════════════════════

// AddCategoryCommand adds one category.
type AddCategoryCommand struct {
	Session identity.SessionContext
	Name    string
}

// DeleteCategoryCommand removes one category and its words.
type DeleteCategoryCommand struct {
	Session identity.SessionContext
	Name    string
}

// DeleteCategoryResult reports the cascade size.
type DeleteCategoryResult struct {
	// WordsRemoved is how many vocabulary items were deleted alongside.
	WordsRemoved int64
}

// CategoryHandler handles both category commands.
type CategoryHandler struct {
	settingsRepo progress.SettingsRepository
	vocabRepo    progress.VocabularyRepository
	cache        progress.SnapshotCache
}

// NewCategoryHandler creates the handler.
func NewCategoryHandler(
	settingsRepo progress.SettingsRepository,
	vocabRepo progress.VocabularyRepository,
	cache progress.SnapshotCache,
) *CategoryHandler {
	return &CategoryHandler{settingsRepo: settingsRepo, vocabRepo: vocabRepo, cache: cache}
}

// HandleAdd appends a category to the owner's list.
func (h *CategoryHandler) HandleAdd(ctx context.Context, cmd AddCategoryCommand) (progress.CategoryList, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	cats, err := h.settingsRepo.GetCategories(ctx, cmd.Session.OwnerUID)
	if err != nil {
		return nil, fmt.Errorf("add_category: load categories: %w", err)
	}

	updated, err := cats.Normalized().WithAdded(cmd.Name)
	if err != nil {
		return nil, err
	}

	if err := h.settingsRepo.SaveCategories(ctx, cmd.Session.OwnerUID, updated); err != nil {
		return nil, fmt.Errorf("add_category: save categories: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return updated, nil
}

// HandleDelete removes a category and cascades the deletion to every
// vocabulary item filed under it. The list is written first; a cascade
// failure after that leaves orphan words, which the next category delete
// or item delete cleans up, rather than a dangling category.
func (h *CategoryHandler) HandleDelete(ctx context.Context, cmd DeleteCategoryCommand) (*DeleteCategoryResult, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	cats, err := h.settingsRepo.GetCategories(ctx, cmd.Session.OwnerUID)
	if err != nil {
		return nil, fmt.Errorf("delete_category: load categories: %w", err)
	}

	updated, err := cats.Normalized().WithRemoved(cmd.Name)
	if err != nil {
		return nil, err
	}

	if err := h.settingsRepo.SaveCategories(ctx, cmd.Session.OwnerUID, updated); err != nil {
		return nil, fmt.Errorf("delete_category: save categories: %w", err)
	}

	removed, err := h.vocabRepo.DeleteByCategory(ctx, cmd.Session.OwnerUID, cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("delete_category: cascade words: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return &DeleteCategoryResult{WordsRemoved: removed}, nil
}
