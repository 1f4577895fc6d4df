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
// PORTFOLIO COMMANDS
// Entries are YouTube or SoundCloud links. Up to three can be featured;
// the cap is enforced here against a live count, not a cached one.
// ══════════════════════════════════════════════════════════════════════════════

// AddPortfolioCommand adds one entry.
type AddPortfolioCommand struct {
	Session identity.SessionContext
	Title   string
	Link    string
}

// ToggleTopCommand features or unfeatures one entry.
type ToggleTopCommand struct {
	Session identity.SessionContext
	EntryID string
}

// PortfolioHandler handles portfolio commands.
type PortfolioHandler struct {
	portfolioRepo progress.PortfolioRepository
	cache         progress.SnapshotCache
}

// NewPortfolioHandler creates the handler.
func NewPortfolioHandler(portfolioRepo progress.PortfolioRepository, cache progress.SnapshotCache) *PortfolioHandler {
	return &PortfolioHandler{portfolioRepo: portfolioRepo, cache: cache}
}

// HandleAdd classifies the link and stores the entry.
func (h *PortfolioHandler) HandleAdd(ctx context.Context, cmd AddPortfolioCommand) (*progress.PortfolioEntry, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	entry, err := progress.NewPortfolioEntry(uuid.NewString(), cmd.Title, cmd.Link)
	if err != nil {
		return nil, err
	}

	if err := h.portfolioRepo.Create(ctx, cmd.Session.OwnerUID, entry); err != nil {
		return nil, fmt.Errorf("add_portfolio: store: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return &entry, nil
}

// HandleToggleTop flips the featured flag. Unfeaturing always succeeds;
// featuring is refused once three entries are already featured.
func (h *PortfolioHandler) HandleToggleTop(ctx context.Context, cmd ToggleTopCommand) (*progress.PortfolioEntry, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	entry, err := h.portfolioRepo.GetByID(ctx, cmd.Session.OwnerUID, cmd.EntryID)
	if err != nil {
		return nil, fmt.Errorf("toggle_top: load entry: %w", err)
	}

	newTop := !entry.IsTop
	if newTop {
		count, err := h.portfolioRepo.CountTop(ctx, cmd.Session.OwnerUID)
		if err != nil {
			return nil, fmt.Errorf("toggle_top: count featured: %w", err)
		}
		if count >= progress.MaxTopEntries {
			return nil, shared.ErrTooManyTopEntries
		}
	}

	if err := h.portfolioRepo.SetTop(ctx, cmd.Session.OwnerUID, cmd.EntryID, newTop); err != nil {
		return nil, fmt.Errorf("toggle_top: save: %w", err)
	}

	entry.IsTop = newTop
	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return entry, nil
}
