// Package usage enforces the daily quota on the metered tip generator.
// Two counters apply: one per user and one shared by everyone. The global
// counter is the cheaper check and runs first.
package usage

import (
	"context"
	"time"

	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/pkg/timeutil"
)

// Default daily quotas.
const (
	DefaultUserLimit   = 5
	DefaultGlobalLimit = 1000
)

// GlobalScope is the counter scope shared by all users.
const GlobalScope = "global"

// UserScope builds the counter scope for one user.
func UserScope(uid string) string { return "user:" + uid }

// Reason explains a quota decision.
type Reason string

const (
	// ReasonOK - the request was admitted.
	ReasonOK Reason = "ok"
	// ReasonAuth - no authenticated user.
	ReasonAuth Reason = "auth"
	// ReasonUser - the per-user quota is spent.
	ReasonUser Reason = "user"
	// ReasonGlobal - the shared quota is spent.
	ReasonGlobal Reason = "global"
	// ReasonError - the counter store failed; the request is denied.
	ReasonError Reason = "error"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Reason          Reason `json:"reason"`
	UserCount       int64  `json:"userCount"`
	UserRemaining   int64  `json:"userRemaining"`
	GlobalCount     int64  `json:"globalCount"`
	GlobalRemaining int64  `json:"globalRemaining"`
	DayKey          string `json:"dayKey"`
}

// Counter is one stored counter row.
type Counter struct {
	Scope     string    `json:"scope"`
	DayKey    string    `json:"dayKey"`
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CounterStore persists daily counters.
type CounterStore interface {
	// Get returns the counter for a scope and day. A missing row reads as
	// zero, not as an error.
	Get(ctx context.Context, scope, dayKey string) (Counter, error)

	// CheckAndIncrement atomically increments both counters if, and only
	// if, both are under their limits. The global limit is checked first.
	// It returns the post-increment (or unchanged, on denial) counts and a
	// denial reason of ReasonUser or ReasonGlobal, or ReasonOK on success.
	CheckAndIncrement(ctx context.Context, uid, dayKey string, userLimit, globalLimit int64) (userCount, globalCount int64, reason Reason, err error)

	// DeleteBefore removes counters older than the cutoff day key.
	// Used by the retention job.
	DeleteBefore(ctx context.Context, cutoffDayKey string) (int64, error)
}

// Limiter applies the daily quotas using a CounterStore. Day boundaries
// follow the configured location, so "today" is stable for the deployment
// rather than drifting with client clocks.
type Limiter struct {
	store       CounterStore
	loc         *time.Location
	userLimit   int64
	globalLimit int64
	events      shared.EventPublisher
	now         func() time.Time
}

// NewLimiter creates a quota limiter. events may be nil.
func NewLimiter(store CounterStore, loc *time.Location, userLimit, globalLimit int64, events shared.EventPublisher) *Limiter {
	if loc == nil {
		loc = time.UTC
	}
	if userLimit <= 0 {
		userLimit = DefaultUserLimit
	}
	if globalLimit <= 0 {
		globalLimit = DefaultGlobalLimit
	}
	return &Limiter{
		store:       store,
		loc:         loc,
		userLimit:   userLimit,
		globalLimit: globalLimit,
		events:      events,
		now:         time.Now,
	}
}

// UserLimit returns the configured per-user daily quota.
func (l *Limiter) UserLimit() int64 { return l.userLimit }

// TodayKey returns the current day key in the limiter's location.
func (l *Limiter) TodayKey() string { return timeutil.DayKey(l.now(), l.loc) }

// CheckAndIncrement decides one metered request. Any store failure denies
// the request with ReasonError: an unknown count must never admit traffic
// past the cap.
func (l *Limiter) CheckAndIncrement(ctx context.Context, uid string) Decision {
	dayKey := l.TodayKey()
	if uid == "" {
		return Decision{Allowed: false, Reason: ReasonAuth, DayKey: dayKey}
	}

	userCount, globalCount, reason, err := l.store.CheckAndIncrement(ctx, uid, dayKey, l.userLimit, l.globalLimit)
	if err != nil {
		return Decision{Allowed: false, Reason: ReasonError, DayKey: dayKey}
	}

	d := Decision{
		Allowed:         reason == ReasonOK,
		Reason:          reason,
		UserCount:       userCount,
		UserRemaining:   max64(l.userLimit-userCount, 0),
		GlobalCount:     globalCount,
		GlobalRemaining: max64(l.globalLimit-globalCount, 0),
		DayKey:          dayKey,
	}
	if !d.Allowed && (reason == ReasonUser || reason == ReasonGlobal) && l.events != nil {
		l.events.Publish(shared.UsageQuotaExceeded{UID: uid, Reason: string(reason), At: l.now()})
	}
	return d
}

// Status reports the user's consumption for today without incrementing.
// Store failures degrade to a zero reading.
func (l *Limiter) Status(ctx context.Context, uid string) Decision {
	dayKey := l.TodayKey()
	d := Decision{Allowed: true, Reason: ReasonOK, DayKey: dayKey, UserRemaining: l.userLimit, GlobalRemaining: l.globalLimit}
	if uid == "" {
		return d
	}
	if c, err := l.store.Get(ctx, UserScope(uid), dayKey); err == nil {
		d.UserCount = c.Count
		d.UserRemaining = max64(l.userLimit-c.Count, 0)
	}
	if c, err := l.store.Get(ctx, GlobalScope, dayKey); err == nil {
		d.GlobalCount = c.Count
		d.GlobalRemaining = max64(l.globalLimit-c.Count, 0)
	}
	return d
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
