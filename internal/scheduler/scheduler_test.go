package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deadline_sync/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncer := SyncFunc(func(ctx context.Context) (*domain.SyncStats, error) {
		if calls.Add(1) == 3 {
			cancel()
		}
		if calls.Load() == 2 {
			return nil, domain.ErrNotAuthenticated
		}
		return &domain.SyncStats{}, nil
	})

	sched := NewScheduler(syncer, 10*time.Millisecond, time.Second, testLogger())
	err := sched.Start(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestScheduler_RunTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deadline time.Time
	syncer := SyncFunc(func(ctx context.Context) (*domain.SyncStats, error) {
		deadline, _ = ctx.Deadline()
		cancel()
		return nil, errors.New("boom")
	})

	start := time.Now()
	sched := NewScheduler(syncer, time.Hour, 50*time.Millisecond, testLogger())
	require.ErrorIs(t, sched.Start(ctx), context.Canceled)

	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, 40*time.Millisecond)
}
