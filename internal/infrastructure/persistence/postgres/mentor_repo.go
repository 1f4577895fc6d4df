package postgres

import (
	"context"
	"fmt"

	"github.com/language-study/study-hub/internal/domain/mentor"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR CODE REPOSITORY
// The code value is the primary key and the uid is unique, so both the
// global code uniqueness and the one-code-per-user rule are enforced by
// the schema itself.
// ══════════════════════════════════════════════════════════════════════════════

// MentorRepo implements mentor.Repository.
type MentorRepo struct {
	conn *Connection
}

// NewMentorRepo creates the repository.
func NewMentorRepo(conn *Connection) *MentorRepo {
	return &MentorRepo{conn: conn}
}

// GetByCode looks up by code value.
func (r *MentorRepo) GetByCode(ctx context.Context, code string) (*mentor.Code, error) {
	var c mentor.Code
	err := r.conn.QueryRow(ctx,
		"SELECT code, uid, enabled, created_at FROM mentor_codes WHERE code = $1",
		code,
	).Scan(&c.Code, &c.UserID, &c.Enabled, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCodeNotFound
		}
		return nil, fmt.Errorf("mentor: get by code: %w", err)
	}
	return &c, nil
}

// GetByUser returns the user's code.
func (r *MentorRepo) GetByUser(ctx context.Context, uid string) (*mentor.Code, error) {
	var c mentor.Code
	err := r.conn.QueryRow(ctx,
		"SELECT code, uid, enabled, created_at FROM mentor_codes WHERE uid = $1",
		uid,
	).Scan(&c.Code, &c.UserID, &c.Enabled, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCodeNotFound
		}
		return nil, fmt.Errorf("mentor: get by user: %w", err)
	}
	return &c, nil
}

// Create inserts a new code. A code value collision surfaces as
// ErrAlreadyExists so the service can retry with a fresh value.
func (r *MentorRepo) Create(ctx context.Context, c mentor.Code) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO mentor_codes (code, uid, enabled, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.Code, c.UserID, c.Enabled, c.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("mentor: create: %w", err)
	}
	return nil
}

// SetEnabled flips the flag on the user's code.
func (r *MentorRepo) SetEnabled(ctx context.Context, uid string, enabled bool) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE mentor_codes SET enabled = $1 WHERE uid = $2",
		enabled, uid,
	)
	if err != nil {
		return fmt.Errorf("mentor: set enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrCodeNotFound
	}
	return nil
}

// DeleteByUser removes the user's code if present.
func (r *MentorRepo) DeleteByUser(ctx context.Context, uid string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM mentor_codes WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("mentor: delete: %w", err)
	}
	return nil
}
