package query

import (
	"context"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/internal/domain/usage"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USAGE QUERY
// Reports today's tip quota consumption without spending any of it.
// ══════════════════════════════════════════════════════════════════════════════

// GetUsageHandler reads quota status.
type GetUsageHandler struct {
	limiter *usage.Limiter
}

// NewGetUsageHandler creates the handler.
func NewGetUsageHandler(limiter *usage.Limiter) *GetUsageHandler {
	return &GetUsageHandler{limiter: limiter}
}

// Handle returns the actor's consumption for today.
func (h *GetUsageHandler) Handle(ctx context.Context, session identity.SessionContext) (usage.Decision, error) {
	if session.ActorUID == "" {
		return usage.Decision{}, shared.ErrNoAuthUser
	}
	return h.limiter.Status(ctx, session.ActorUID), nil
}
