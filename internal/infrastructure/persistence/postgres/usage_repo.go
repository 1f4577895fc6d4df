package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/language-study/study-hub/internal/domain/usage"
)

// ══════════════════════════════════════════════════════════════════════════════
// USAGE COUNTER REPOSITORY
// Implements the transactional quota check. Both counter rows are locked
// with SELECT FOR UPDATE inside one transaction, so concurrent requests
// serialize on the same rows and the cap cannot be overshot.
// ══════════════════════════════════════════════════════════════════════════════

// UsageRepo implements usage.CounterStore.
type UsageRepo struct {
	conn *Connection
}

// NewUsageRepo creates the repository.
func NewUsageRepo(conn *Connection) *UsageRepo {
	return &UsageRepo{conn: conn}
}

// Get returns a counter; a missing row reads as zero.
func (r *UsageRepo) Get(ctx context.Context, scope, dayKey string) (usage.Counter, error) {
	c := usage.Counter{Scope: scope, DayKey: dayKey}
	err := r.conn.QueryRow(ctx,
		"SELECT count, updated_at FROM usage_counters WHERE scope = $1 AND day_key = $2",
		scope, dayKey,
	).Scan(&c.Count, &c.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return c, nil
		}
		return usage.Counter{}, fmt.Errorf("usage: get counter: %w", err)
	}
	return c, nil
}

// CheckAndIncrement performs the atomic two-counter quota check. The
// global row is checked first; a denial leaves both counters untouched.
func (r *UsageRepo) CheckAndIncrement(
	ctx context.Context,
	uid, dayKey string,
	userLimit, globalLimit int64,
) (userCount, globalCount int64, reason usage.Reason, err error) {
	userScope := usage.UserScope(uid)

	err = r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// materialize both rows so FOR UPDATE has something to lock.
		// DO NOTHING keeps existing counts intact.
		_, txErr := tx.Exec(ctx, `
			INSERT INTO usage_counters (scope, day_key, count)
			VALUES ($1, $3, 0), ($2, $3, 0)
			ON CONFLICT (scope, day_key) DO NOTHING
		`, usage.GlobalScope, userScope, dayKey)
		if txErr != nil {
			return fmt.Errorf("usage: materialize counters: %w", txErr)
		}

		// lock in a fixed order to avoid deadlocks between concurrent
		// requests from different users
		txErr = tx.QueryRow(ctx, `
			SELECT count FROM usage_counters
			WHERE scope = $1 AND day_key = $2 FOR UPDATE
		`, usage.GlobalScope, dayKey).Scan(&globalCount)
		if txErr != nil {
			return fmt.Errorf("usage: lock global counter: %w", txErr)
		}

		txErr = tx.QueryRow(ctx, `
			SELECT count FROM usage_counters
			WHERE scope = $1 AND day_key = $2 FOR UPDATE
		`, userScope, dayKey).Scan(&userCount)
		if txErr != nil {
			return fmt.Errorf("usage: lock user counter: %w", txErr)
		}

		if globalCount >= globalLimit {
			reason = usage.ReasonGlobal
			return nil
		}
		if userCount >= userLimit {
			reason = usage.ReasonUser
			return nil
		}

		_, txErr = tx.Exec(ctx, `
			UPDATE usage_counters SET count = count + 1, updated_at = NOW()
			WHERE scope = ANY($1) AND day_key = $2
		`, []string{usage.GlobalScope, userScope}, dayKey)
		if txErr != nil {
			return fmt.Errorf("usage: increment counters: %w", txErr)
		}

		userCount++
		globalCount++
		reason = usage.ReasonOK
		return nil
	})
	if err != nil {
		return 0, 0, usage.ReasonError, err
	}
	return userCount, globalCount, reason, nil
}

// DeleteBefore removes counters older than the cutoff day key. Day keys
// sort lexicographically, so a plain comparison suffices.
func (r *UsageRepo) DeleteBefore(ctx context.Context, cutoffDayKey string) (int64, error) {
	tag, err := r.conn.Exec(ctx, "DELETE FROM usage_counters WHERE day_key < $1", cutoffDayKey)
	if err != nil {
		return 0, fmt.Errorf("usage: retention delete: %w", err)
	}
	return tag.RowsAffected(), nil
}
