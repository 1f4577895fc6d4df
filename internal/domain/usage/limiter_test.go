package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory CounterStore replicating the transactional
// check-and-increment contract.
type memStore struct {
	counts map[string]int64 // scope|dayKey -> count
	fail   bool
}

func newMemStore() *memStore { return &memStore{counts: map[string]int64{}} }

func key(scope, dayKey string) string { return scope + "|" + dayKey }

func (m *memStore) Get(_ context.Context, scope, dayKey string) (Counter, error) {
	if m.fail {
		return Counter{}, errors.New("store down")
	}
	return Counter{Scope: scope, DayKey: dayKey, Count: m.counts[key(scope, dayKey)]}, nil
}

func (m *memStore) CheckAndIncrement(_ context.Context, uid, dayKey string, userLimit, globalLimit int64) (int64, int64, Reason, error) {
	if m.fail {
		return 0, 0, ReasonError, errors.New("store down")
	}
	gk := key(GlobalScope, dayKey)
	uk := key(UserScope(uid), dayKey)
	if m.counts[gk] >= globalLimit {
		return m.counts[uk], m.counts[gk], ReasonGlobal, nil
	}
	if m.counts[uk] >= userLimit {
		return m.counts[uk], m.counts[gk], ReasonUser, nil
	}
	m.counts[gk]++
	m.counts[uk]++
	return m.counts[uk], m.counts[gk], ReasonOK, nil
}

func (m *memStore) DeleteBefore(_ context.Context, cutoff string) (int64, error) {
	return 0, nil
}

func TestLimiterFivePerDay(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, time.UTC, 5, 1000, nil)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d := l.CheckAndIncrement(ctx, "u-1")
		require.True(t, d.Allowed, "request %d should pass", i)
		assert.Equal(t, int64(i), d.UserCount)
		assert.Equal(t, int64(5-i), d.UserRemaining)
		assert.Equal(t, int64(i), d.GlobalCount)
		assert.Equal(t, int64(1000-i), d.GlobalRemaining)
	}

	d := l.CheckAndIncrement(ctx, "u-1")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUser, d.Reason)
	assert.Equal(t, int64(0), d.UserRemaining)

	// a denied request does not consume quota
	assert.Equal(t, int64(5), store.counts[key(UserScope("u-1"), l.TodayKey())])
}

func TestLimiterGlobalCheckedFirst(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, time.UTC, 5, 3, nil)
	ctx := context.Background()

	// three users each take one request, exhausting the shared pool
	for _, uid := range []string{"a", "b", "c"} {
		require.True(t, l.CheckAndIncrement(ctx, uid).Allowed)
	}

	// a fresh user with untouched personal quota is still denied globally
	d := l.CheckAndIncrement(ctx, "fresh")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonGlobal, d.Reason)
	assert.Equal(t, int64(0), d.UserCount)
}

func TestLimiterDeniesAnonymous(t *testing.T) {
	l := NewLimiter(newMemStore(), time.UTC, 5, 1000, nil)
	d := l.CheckAndIncrement(context.Background(), "")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAuth, d.Reason)
}

func TestLimiterFailsClosed(t *testing.T) {
	store := newMemStore()
	store.fail = true
	l := NewLimiter(store, time.UTC, 5, 1000, nil)

	d := l.CheckAndIncrement(context.Background(), "u-1")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonError, d.Reason)
}

func TestLimiterStatusDoesNotConsume(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, time.UTC, 5, 1000, nil)
	ctx := context.Background()

	l.CheckAndIncrement(ctx, "u-1")
	l.CheckAndIncrement(ctx, "u-1")

	for i := 0; i < 3; i++ {
		d := l.Status(ctx, "u-1")
		assert.Equal(t, int64(2), d.UserCount)
		assert.Equal(t, int64(3), d.UserRemaining)
		assert.Equal(t, int64(2), d.GlobalCount)
		assert.Equal(t, int64(998), d.GlobalRemaining)
	}
}

func TestScopes(t *testing.T) {
	assert.Equal(t, "user:u-1", UserScope("u-1"))
	assert.Equal(t, "global", GlobalScope)
}
