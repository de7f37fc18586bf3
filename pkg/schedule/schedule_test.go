package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsBadExpression(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	err := Cron("61 * * * *").Run(func(context.Context) {})
	assert.Error(t, err)
	assert.Empty(t, List())
}

func TestListNamesEntries(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Cron("0 3 * * *").Name("partner:refresh").Run(func(context.Context) {}))
	require.NoError(t, Cron("@daily").Run(func(context.Context) {}))

	assert.Equal(t, []string{"partner:refresh  [0 3 * * *]", "task-2  [@daily]"}, List())
}

func TestStartRunsDueTasksUntilStopped(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var runs atomic.Int32
	require.NoError(t, Every(time.Second).Name("tick").WithoutOverlapping().Run(func(context.Context) {
		runs.Add(1)
	}))

	stop, err := Start(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	stop()
	stop()

	after := runs.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after stop")
}

func TestTaskContextEndsWithScheduler(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	started := make(chan struct{}, 1)
	done := make(chan struct{}, 1)
	require.NoError(t, Every(time.Second).WithoutOverlapping().Run(func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		select {
		case done <- struct{}{}:
		default:
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := Start(ctx)
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("task never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("task context was not cancelled")
	}
}
