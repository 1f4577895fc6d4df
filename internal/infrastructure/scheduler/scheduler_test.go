package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/language-study/study-hub/pkg/timeutil"
)

type fakeRetention struct {
	cutoff string
	err    error
}

func (f *fakeRetention) DeleteBefore(_ context.Context, cutoff string) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

type fakePurger struct {
	calls int
}

func (f *fakePurger) DeleteExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return 1, nil
}

func TestUsageRetentionUsesConfiguredCutoff(t *testing.T) {
	retention := &fakeRetention{}
	s := New(Config{Location: time.UTC, RetentionDays: 7}, retention, nil, nil)

	s.runUsageRetention()

	assert.Equal(t, timeutil.DaysAgoKey(7, time.UTC), retention.cutoff)
}

func TestUsageRetentionSurvivesStoreError(t *testing.T) {
	retention := &fakeRetention{err: errors.New("db down")}
	s := New(Config{}, retention, nil, nil)

	// must not panic; the next run retries
	s.runUsageRetention()
}

func TestSessionPurgeRuns(t *testing.T) {
	purger := &fakePurger{}
	s := New(Config{}, nil, purger, nil)

	s.runSessionPurge()

	assert.Equal(t, 1, purger.calls)
}

func TestDefaultsApplied(t *testing.T) {
	s := New(Config{}, nil, nil, nil)

	assert.Equal(t, DefaultRetentionDays, s.config.RetentionDays)
	assert.Equal(t, DefaultRunAt, s.config.RunAt)
	assert.Equal(t, time.UTC, s.config.Location)
}
