// Package command contains write operations (CQRS - Commands).
// Every handler refuses read-only sessions before touching storage and
// invalidates the owner's snapshot cache after a successful mutation.
package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD VOCABULARY COMMAND
// Adds a batch of words from one multi-line input. The batch shares one
// translation and one category and is persisted atomically.
// ══════════════════════════════════════════════════════════════════════════════

// AddVocabularyCommand carries the raw form input.
type AddVocabularyCommand struct {
	Session identity.SessionContext

	// RawWords is the newline-separated word list as typed.
	RawWords string

	// Translation is optional and applies to every word in the batch.
	Translation string

	// Category must exist in the user's category list.
	Category string
}

// AddVocabularyResult reports what was stored.
type AddVocabularyResult struct {
	Items []progress.VocabularyItem
}

// AddVocabularyHandler handles AddVocabularyCommand.
type AddVocabularyHandler struct {
	vocabRepo    progress.VocabularyRepository
	settingsRepo progress.SettingsRepository
	cache        progress.SnapshotCache
}

// NewAddVocabularyHandler creates the handler.
func NewAddVocabularyHandler(
	vocabRepo progress.VocabularyRepository,
	settingsRepo progress.SettingsRepository,
	cache progress.SnapshotCache,
) *AddVocabularyHandler {
	return &AddVocabularyHandler{vocabRepo: vocabRepo, settingsRepo: settingsRepo, cache: cache}
}

// Handle validates the batch and stores it atomically. The category is
// checked against the owner's list; unknown categories are rejected rather
// than silently created.
func (h *AddVocabularyHandler) Handle(ctx context.Context, cmd AddVocabularyCommand) (*AddVocabularyResult, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	words, err := progress.ParseEntryList(cmd.RawWords)
	if err != nil {
		return nil, err
	}

	cats, err := h.settingsRepo.GetCategories(ctx, cmd.Session.OwnerUID)
	if err != nil {
		return nil, fmt.Errorf("add_vocabulary: load categories: %w", err)
	}
	if !cats.Contains(cmd.Category) {
		return nil, shared.NewDomainError("progress", "AddVocabulary", shared.ErrNotFound, "category does not exist")
	}

	items := make([]progress.VocabularyItem, 0, len(words))
	for _, w := range words {
		item, err := progress.NewVocabularyItem(uuid.NewString(), w, cmd.Translation, cmd.Category)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := h.vocabRepo.CreateBatch(ctx, cmd.Session.OwnerUID, items); err != nil {
		return nil, fmt.Errorf("add_vocabulary: store batch: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return &AddVocabularyResult{Items: items}, nil
}

// invalidateSnapshot drops the cached snapshot after a mutation. Failures
// are ignored: the cache entry expires on its own within the TTL.
func invalidateSnapshot(ctx context.Context, cache progress.SnapshotCache, uid string) {
	if cache != nil {
		_ = cache.Invalidate(ctx, uid)
	}
}
