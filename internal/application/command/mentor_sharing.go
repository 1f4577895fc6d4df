package command

import (
	"context"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/mentor"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR SHARING COMMANDS
// Thin session-checked wrappers over the mentor code service. A viewer can
// never manage the student's code.
// ══════════════════════════════════════════════════════════════════════════════

// MentorSharingHandler handles share-code management.
type MentorSharingHandler struct {
	codes *mentor.Service
}

// NewMentorSharingHandler creates the handler.
func NewMentorSharingHandler(codes *mentor.Service) *MentorSharingHandler {
	return &MentorSharingHandler{codes: codes}
}

// HandleGet returns the owner's code without creating one.
func (h *MentorSharingHandler) HandleGet(ctx context.Context, session identity.SessionContext) (*mentor.Code, error) {
	if err := session.RequireMutable(); err != nil {
		return nil, err
	}
	return h.codes.Get(ctx, session.OwnerUID)
}

// HandleGetOrCreate returns the owner's code, minting one on first use.
func (h *MentorSharingHandler) HandleGetOrCreate(ctx context.Context, session identity.SessionContext) (*mentor.Code, error) {
	if err := session.RequireMutable(); err != nil {
		return nil, err
	}
	return h.codes.GetOrCreate(ctx, session.OwnerUID)
}

// HandleSetEnabled turns sharing on or off.
func (h *MentorSharingHandler) HandleSetEnabled(ctx context.Context, session identity.SessionContext, enabled bool) (*mentor.Code, error) {
	if err := session.RequireMutable(); err != nil {
		return nil, err
	}
	return h.codes.SetEnabled(ctx, session.OwnerUID, enabled)
}

// HandleRegenerate replaces the code, cutting off anyone holding the old one.
func (h *MentorSharingHandler) HandleRegenerate(ctx context.Context, session identity.SessionContext) (*mentor.Code, error) {
	if err := session.RequireMutable(); err != nil {
		return nil, err
	}
	return h.codes.Regenerate(ctx, session.OwnerUID)
}
