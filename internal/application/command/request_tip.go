package command

import (
	"context"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/usage"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST TIP COMMAND
// Generates a study tip for one item. The premium generator is metered by
// the daily quota; the quota gate runs first and is never bypassed. When
// the quota is spent or the upstream fails, the local heuristic serves a
// tip instead, at no quota cost.
// ══════════════════════════════════════════════════════════════════════════════

// TipGenerator produces a study tip for an item. Implemented by the
// upstream API client and by the local heuristic fallback.
type TipGenerator interface {
	GenerateTip(ctx context.Context, req TipRequest) (string, error)
}

// TipRequest describes the item to advise on.
type TipRequest struct {
	Kind   ItemKind
	Word   string
	Name   string
	Status progress.Status
}

// RequestTipCommand asks for one tip.
type RequestTipCommand struct {
	Session identity.SessionContext
	Request TipRequest
}

// RequestTipResult carries the tip and how it was produced.
type RequestTipResult struct {
	Tip string `json:"tip"`

	// Premium is set when the metered upstream produced the tip.
	Premium bool `json:"premium"`

	// Decision is the quota outcome for this request.
	Decision usage.Decision `json:"decision"`
}

// RequestTipHandler handles RequestTipCommand.
type RequestTipHandler struct {
	limiter  *usage.Limiter
	premium  TipGenerator
	fallback TipGenerator
}

// NewRequestTipHandler creates the handler. premium may be nil when no
// upstream is configured; every request then takes the fallback path
// without consuming quota.
func NewRequestTipHandler(limiter *usage.Limiter, premium, fallback TipGenerator) *RequestTipHandler {
	return &RequestTipHandler{limiter: limiter, premium: premium, fallback: fallback}
}

// Handle runs the gate, then the premium generator, then the fallback.
// The fallback itself never fails; a denied or broken premium path still
// yields a usable tip.
func (h *RequestTipHandler) Handle(ctx context.Context, cmd RequestTipCommand) (*RequestTipResult, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	if h.premium == nil {
		tip, err := h.fallback.GenerateTip(ctx, cmd.Request)
		if err != nil {
			return nil, err
		}
		return &RequestTipResult{Tip: tip, Decision: h.limiter.Status(ctx, cmd.Session.OwnerUID)}, nil
	}

	decision := h.limiter.CheckAndIncrement(ctx, cmd.Session.OwnerUID)
	if decision.Allowed {
		if tip, err := h.premium.GenerateTip(ctx, cmd.Request); err == nil {
			return &RequestTipResult{Tip: tip, Premium: true, Decision: decision}, nil
		}
		// upstream failed after the quota was spent; degrade without
		// refunding - the increment already happened atomically
	}

	tip, err := h.fallback.GenerateTip(ctx, cmd.Request)
	if err != nil {
		return nil, err
	}
	return &RequestTipResult{Tip: tip, Decision: decision}, nil
}
