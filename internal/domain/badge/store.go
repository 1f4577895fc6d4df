package badge

import "context"

// EarnedBadgeStore persists the earned set per user. The set is always
// written wholesale; there is no incremental add or remove.
type EarnedBadgeStore interface {
	Get(ctx context.Context, uid string) ([]string, error)
	Save(ctx context.Context, uid string, badgeIDs []string) error
}
