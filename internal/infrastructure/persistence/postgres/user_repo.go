package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER / SESSION / ACTION CODE STORAGE
// Backing tables for the auth provider. Password hashes never leave this
// layer and the provider; the rest of the system sees identity.User only.
// ══════════════════════════════════════════════════════════════════════════════

// UserRecord is a stored account including its credential hash.
type UserRecord struct {
	User         identity.User
	PasswordHash string
}

// UserRepo persists accounts, sessions, and action codes.
type UserRepo struct {
	conn *Connection
}

// NewUserRepo creates the repository.
func NewUserRepo(conn *Connection) *UserRepo {
	return &UserRepo{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Accounts
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a new account. A duplicate email maps to ErrEmailInUse.
func (r *UserRepo) Create(ctx context.Context, rec UserRecord) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (uid, email, password_hash, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.User.UID, rec.User.Email, rec.PasswordHash, rec.User.EmailVerified, rec.User.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEmailInUse
		}
		return fmt.Errorf("users: create: %w", err)
	}
	return nil
}

// GetByEmail returns the account for an email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return r.getBy(ctx, "email = $1", email)
}

// GetByUID returns the account for a uid.
func (r *UserRepo) GetByUID(ctx context.Context, uid string) (*UserRecord, error) {
	return r.getBy(ctx, "uid = $1", uid)
}

func (r *UserRepo) getBy(ctx context.Context, cond string, arg any) (*UserRecord, error) {
	var rec UserRecord
	var lastLogin *time.Time
	query := fmt.Sprintf(`
		SELECT uid, email, password_hash, email_verified, created_at, last_login_at
		FROM users WHERE %s
	`, cond)
	err := r.conn.QueryRow(ctx, query, arg).Scan(
		&rec.User.UID, &rec.User.Email, &rec.PasswordHash,
		&rec.User.EmailVerified, &rec.User.CreatedAt, &lastLogin,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	if lastLogin != nil {
		rec.User.LastLoginAt = *lastLogin
	}
	return &rec, nil
}

// SetPasswordHash replaces the credential hash.
func (r *UserRepo) SetPasswordHash(ctx context.Context, uid, hash string) error {
	tag, err := r.conn.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE uid = $2", hash, uid)
	if err != nil {
		return fmt.Errorf("users: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// MarkEmailVerified sets the verification flag.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, uid string) error {
	_, err := r.conn.Exec(ctx, "UPDATE users SET email_verified = TRUE WHERE uid = $1", uid)
	if err != nil {
		return fmt.Errorf("users: mark verified: %w", err)
	}
	return nil
}

// TouchLastLogin records a successful sign-in.
func (r *UserRepo) TouchLastLogin(ctx context.Context, uid string, at time.Time) error {
	_, err := r.conn.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE uid = $2", at, uid)
	if err != nil {
		return fmt.Errorf("users: touch login: %w", err)
	}
	return nil
}

// Delete removes the account; sessions and action codes cascade.
func (r *UserRepo) Delete(ctx context.Context, uid string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM users WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────────────────────────────────────

// CreateSession stores a session token.
func (r *UserRepo) CreateSession(ctx context.Context, s identity.Session) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO sessions (token, uid, expires_at) VALUES ($1, $2, $3)
	`, s.Token, s.UID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("sessions: create: %w", err)
	}
	return nil
}

// GetSession returns a live session; expired tokens read as unauthorized.
func (r *UserRepo) GetSession(ctx context.Context, token string) (*identity.Session, error) {
	var s identity.Session
	err := r.conn.QueryRow(ctx, `
		SELECT token, uid, expires_at FROM sessions
		WHERE token = $1 AND expires_at > NOW()
	`, token).Scan(&s.Token, &s.UID, &s.ExpiresAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUnauthorized
		}
		return nil, fmt.Errorf("sessions: get: %w", err)
	}
	return &s, nil
}

// DeleteSession revokes one token.
func (r *UserRepo) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("sessions: delete: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes dead tokens. Run by the scheduler.
func (r *UserRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.conn.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= NOW()")
	if err != nil {
		return 0, fmt.Errorf("sessions: purge expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Action codes
// ─────────────────────────────────────────────────────────────────────────────

// ActionCodeRecord is a stored single-use code.
type ActionCodeRecord struct {
	Code      string
	UID       string
	Kind      identity.ActionCodeKind
	ExpiresAt time.Time
}

// CreateActionCode stores a code.
func (r *UserRepo) CreateActionCode(ctx context.Context, rec ActionCodeRecord) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO action_codes (code, uid, kind, expires_at)
		VALUES ($1, $2, $3, $4)
	`, rec.Code, rec.UID, string(rec.Kind), rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("action_codes: create: %w", err)
	}
	return nil
}

// ConsumeActionCode marks a live, unused code as used and returns it.
// Invalid, expired, and already-used codes all map to the same error so
// the caller cannot probe which codes exist.
func (r *UserRepo) ConsumeActionCode(ctx context.Context, code string) (*ActionCodeRecord, error) {
	var rec ActionCodeRecord
	var kind string
	err := r.conn.QueryRow(ctx, `
		UPDATE action_codes SET used_at = NOW()
		WHERE code = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING code, uid, kind, expires_at
	`, code).Scan(&rec.Code, &rec.UID, &kind, &rec.ExpiresAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrActionCodeInvalid
		}
		return nil, fmt.Errorf("action_codes: consume: %w", err)
	}
	rec.Kind = identity.ActionCodeKind(kind)
	return &rec, nil
}
