// Package identity defines the authenticated user model, the auth provider
// capability surface, and the per-request session context that carries the
// read-only distinction for mentor views.
package identity

import (
	"context"
	"time"
)

// User is an authenticated account.
type User struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
}

// ActionCodeKind distinguishes the two out-of-band email flows.
type ActionCodeKind string

const (
	// ActionVerifyEmail confirms ownership of the account email.
	ActionVerifyEmail ActionCodeKind = "verify_email"
	// ActionResetPassword authorizes a password change without a session.
	ActionResetPassword ActionCodeKind = "reset_password"
)

// Session is an authenticated session token with its expiry.
type Session struct {
	Token     string    `json:"token"`
	UID       string    `json:"uid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthProvider is the capability surface of the authentication backend.
// Implemented by infrastructure; the application layer never sees password
// hashes or token internals.
type AuthProvider interface {
	// SignUp creates an account and an initial session.
	SignUp(ctx context.Context, email, password string) (*User, *Session, error)

	// SignIn authenticates credentials and opens a session.
	SignIn(ctx context.Context, email, password string) (*User, *Session, error)

	// SignOut revokes the session token.
	SignOut(ctx context.Context, token string) error

	// UserBySession resolves a session token to its user. Expired or
	// unknown tokens return ErrUnauthorized.
	UserBySession(ctx context.Context, token string) (*User, error)

	// IssueActionCode creates a single-use code for an email flow.
	IssueActionCode(ctx context.Context, email string, kind ActionCodeKind) (code string, err error)

	// ApplyActionCode consumes a code. newPassword is required for the
	// reset flow and ignored for verification.
	ApplyActionCode(ctx context.Context, code, newPassword string) error

	// UpdatePassword changes the password of an authenticated user.
	UpdatePassword(ctx context.Context, uid, currentPassword, newPassword string) error

	// DeleteUser removes the account and revokes its sessions. Domain data
	// teardown is the caller's responsibility.
	DeleteUser(ctx context.Context, uid string) error
}
