package identity

import (
	"context"

	"github.com/language-study/study-hub/internal/domain/shared"
)

// SessionContext scopes one request to a data owner. For a normal request
// the actor and the owner are the same user. For a mentor view the actor
// is the mentor, the owner is the student, and the context is read-only.
// There is no ambient global state; every operation receives its session
// explicitly.
type SessionContext struct {
	// ActorUID is the authenticated caller.
	ActorUID string

	// OwnerUID is the user whose data is being accessed.
	OwnerUID string

	// ReadOnly is set for mentor views. All mutating operations refuse a
	// read-only session before touching storage.
	ReadOnly bool

	// ReviewEnabled is set on mentor views when the owner has opted in to
	// review mode. It gates one extra feature inside the read-only view,
	// never the view itself.
	ReviewEnabled bool
}

// NewOwnerSession scopes a request to the caller's own data.
func NewOwnerSession(uid string) SessionContext {
	return SessionContext{ActorUID: uid, OwnerUID: uid}
}

// NewViewerSession scopes a mentor's request to a student's data.
func NewViewerSession(actorUID, ownerUID string) SessionContext {
	return SessionContext{ActorUID: actorUID, OwnerUID: ownerUID, ReadOnly: true}
}

// RequireMutable returns ErrReadOnlySession for viewer sessions. Every
// command handler calls this first.
func (s SessionContext) RequireMutable() error {
	if s.OwnerUID == "" {
		return shared.ErrNoAuthUser
	}
	if s.ReadOnly {
		return shared.ErrReadOnlySession
	}
	return nil
}

type sessionCtxKey struct{}

// WithSession attaches a session context to ctx.
func WithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sc)
}

// SessionFromContext extracts the session context, if any.
func SessionFromContext(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(sessionCtxKey{}).(SessionContext)
	return sc, ok
}
