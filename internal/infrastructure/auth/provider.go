// Package auth implements the authentication backend: bcrypt credential
// hashing, opaque session tokens, and single-use action codes for the
// email verification and password reset flows.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/internal/infrastructure/persistence/postgres"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// DefaultSessionTTL is how long a session token stays valid.
	DefaultSessionTTL = 30 * 24 * time.Hour

	// DefaultActionCodeTTL is how long an action code stays valid.
	DefaultActionCodeTTL = time.Hour

	// tokenBytes is the entropy of session tokens and action codes.
	tokenBytes = 32
)

// UserStore is the persistence surface the provider needs. Implemented by
// postgres.UserRepo.
type UserStore interface {
	Create(ctx context.Context, rec postgres.UserRecord) error
	GetByEmail(ctx context.Context, email string) (*postgres.UserRecord, error)
	GetByUID(ctx context.Context, uid string) (*postgres.UserRecord, error)
	SetPasswordHash(ctx context.Context, uid, hash string) error
	MarkEmailVerified(ctx context.Context, uid string) error
	TouchLastLogin(ctx context.Context, uid string, at time.Time) error
	Delete(ctx context.Context, uid string) error

	CreateSession(ctx context.Context, s identity.Session) error
	GetSession(ctx context.Context, token string) (*identity.Session, error)
	DeleteSession(ctx context.Context, token string) error

	CreateActionCode(ctx context.Context, rec postgres.ActionCodeRecord) error
	ConsumeActionCode(ctx context.Context, code string) (*postgres.ActionCodeRecord, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROVIDER
// ══════════════════════════════════════════════════════════════════════════════

// Provider implements identity.AuthProvider.
type Provider struct {
	store         UserStore
	sessionTTL    time.Duration
	actionCodeTTL time.Duration
	bcryptCost    int
	now           func() time.Time
}

// Option customizes the provider.
type Option func(*Provider)

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.sessionTTL = ttl }
}

// WithBcryptCost overrides the hashing cost. Tests lower it.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.bcryptCost = cost }
}

// WithActionCodeTTL overrides the action code lifetime.
func WithActionCodeTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.actionCodeTTL = ttl }
}

// NewProvider creates the provider.
func NewProvider(store UserStore, opts ...Option) *Provider {
	p := &Provider{
		store:         store,
		sessionTTL:    DefaultSessionTTL,
		actionCodeTTL: DefaultActionCodeTTL,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Sign up / sign in
// ─────────────────────────────────────────────────────────────────────────────

// SignUp creates an account and opens its first session.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.User, *identity.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := identity.User{
		UID:       uuid.NewString(),
		Email:     email,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.Create(ctx, postgres.UserRecord{User: user, PasswordHash: string(hash)}); err != nil {
		return nil, nil, err
	}

	session, err := p.openSession(ctx, user.UID)
	if err != nil {
		return nil, nil, err
	}
	return &user, session, nil
}

// SignIn authenticates credentials and opens a session. Unknown emails and
// wrong passwords both map to ErrInvalidCredentials.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.User, *identity.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}

	rec, err := p.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}

	now := p.now().UTC()
	if err := p.store.TouchLastLogin(ctx, rec.User.UID, now); err != nil {
		return nil, nil, err
	}
	rec.User.LastLoginAt = now

	session, err := p.openSession(ctx, rec.User.UID)
	if err != nil {
		return nil, nil, err
	}
	return &rec.User, session, nil
}

// SignOut revokes the session token.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return shared.ErrUnauthorized
	}
	return p.store.DeleteSession(ctx, token)
}

// UserBySession resolves a token to its user.
func (p *Provider) UserBySession(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	session, err := p.store.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	rec, err := p.store.GetByUID(ctx, session.UID)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	return &rec.User, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Action codes
// ─────────────────────────────────────────────────────────────────────────────

// IssueActionCode creates a single-use code for the given email flow. The
// code is returned to the caller for delivery; this layer does not send
// mail.
func (p *Provider) IssueActionCode(ctx context.Context, email string, kind identity.ActionCodeKind) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	rec, err := p.store.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := randomToken()
	if err != nil {
		return "", err
	}
	err = p.store.CreateActionCode(ctx, postgres.ActionCodeRecord{
		Code:      code,
		UID:       rec.User.UID,
		Kind:      kind,
		ExpiresAt: p.now().UTC().Add(p.actionCodeTTL),
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// ApplyActionCode consumes a code and applies its effect.
func (p *Provider) ApplyActionCode(ctx context.Context, code, newPassword string) error {
	if code == "" {
		return shared.ErrActionCodeInvalid
	}
	rec, err := p.store.ConsumeActionCode(ctx, code)
	if err != nil {
		return err
	}

	switch rec.Kind {
	case identity.ActionVerifyEmail:
		return p.store.MarkEmailVerified(ctx, rec.UID)
	case identity.ActionResetPassword:
		if err := validatePassword(newPassword); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.bcryptCost)
		if err != nil {
			return fmt.Errorf("auth: hash password: %w", err)
		}
		return p.store.SetPasswordHash(ctx, rec.UID, string(hash))
	default:
		return shared.ErrActionCodeInvalid
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Account management
// ─────────────────────────────────────────────────────────────────────────────

// UpdatePassword changes the password after re-verifying the current one.
func (p *Provider) UpdatePassword(ctx context.Context, uid, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	rec, err := p.store.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(currentPassword)) != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.bcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return p.store.SetPasswordHash(ctx, uid, string(hash))
}

// DeleteUser removes the account. Sessions and action codes cascade in
// storage.
func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	return p.store.Delete(ctx, uid)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (p *Provider) openSession(ctx context.Context, uid string) (*identity.Session, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	session := identity.Session{
		Token:     token,
		UID:       uid,
		ExpiresAt: p.now().UTC().Add(p.sessionTTL),
	}
	if err := p.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

func randomToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: email", shared.ErrInvalidFormat)
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, MinPasswordLength)
	}
	return nil
}
