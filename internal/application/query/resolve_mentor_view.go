package query

import (
	"context"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/mentor"
	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE MENTOR VIEW QUERY
// Turns a raw share code into a read-only viewer session. Resolution order
// is fixed: format, existence, owner's enablement flag. Each failure maps
// to a distinct error so the UI can tell a typo from a revoked code. The
// owner's review-mode setting never blocks resolution; it only decides
// whether the review feature shows up inside the view.
// ══════════════════════════════════════════════════════════════════════════════

// ResolveMentorViewHandler resolves share codes to viewer sessions.
type ResolveMentorViewHandler struct {
	codes        *mentor.Service
	settingsRepo progress.SettingsRepository
}

// NewResolveMentorViewHandler creates the handler.
func NewResolveMentorViewHandler(codes *mentor.Service, settingsRepo progress.SettingsRepository) *ResolveMentorViewHandler {
	return &ResolveMentorViewHandler{codes: codes, settingsRepo: settingsRepo}
}

// Handle resolves rawCode for the given actor. The actor uid may be empty:
// a mentor does not need an account of their own to follow a share link.
func (h *ResolveMentorViewHandler) Handle(ctx context.Context, actorUID, rawCode string) (identity.SessionContext, error) {
	ownerUID, err := h.codes.Resolve(ctx, rawCode)
	if err != nil {
		return identity.SessionContext{}, err
	}

	session := identity.NewViewerSession(actorUID, ownerUID)

	// fail safe: a settings read failure hides review mode rather than
	// refusing the view
	if settings, err := h.settingsRepo.GetSettings(ctx, ownerUID); err == nil {
		session.ReviewEnabled = settings.ProgressEnabled
	}
	return session, nil
}
