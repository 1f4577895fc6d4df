package mentor

import "context"

// Repository persists mentor codes. Codes are globally unique; each user
// owns at most one.
type Repository interface {
	// GetByCode looks a code up by its value. Returns ErrCodeNotFound when
	// absent.
	GetByCode(ctx context.Context, code string) (*Code, error)

	// GetByUser returns the user's code. Returns ErrCodeNotFound when the
	// user has none yet.
	GetByUser(ctx context.Context, uid string) (*Code, error)

	// Create inserts a new code. Returns ErrAlreadyExists on a code value
	// collision so the caller can retry with a fresh code.
	Create(ctx context.Context, c Code) error

	// SetEnabled flips the enablement flag of the user's code.
	SetEnabled(ctx context.Context, uid string, enabled bool) error

	// DeleteByUser removes the user's code if present.
	DeleteByUser(ctx context.Context, uid string) error
}
