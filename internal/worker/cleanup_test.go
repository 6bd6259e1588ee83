package worker

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanupWorker_RunOnceContinuesAfterFailure(t *testing.T) {
	var ran []string
	failing := CleanupTask{Name: "invitations", Run: func(context.Context) (int64, error) {
		ran = append(ran, "invitations")
		return 0, stderrors.New("db down")
	}}
	ok := CleanupTask{Name: "audit", Run: func(context.Context) (int64, error) {
		ran = append(ran, "audit")
		return 3, nil
	}}

	NewCleanupWorker(time.Minute, quietLogger(), failing, ok).RunOnce(context.Background())
	assert.Equal(t, []string{"invitations", "audit"}, ran)
}

func TestCleanupWorker_StartStopsOnCancel(t *testing.T) {
	calls := make(chan struct{}, 10)
	task := CleanupTask{Name: "tick", Run: func(context.Context) (int64, error) {
		calls <- struct{}{}
		return 0, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewCleanupWorker(10*time.Millisecond, quietLogger(), task).Start(ctx)
		close(done)
	}()

	<-calls
	<-calls
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRetentionTask(t *testing.T) {
	var cutoff time.Time
	task := RetentionTask("audit", 48*time.Hour, func(_ context.Context, before time.Time) (int64, error) {
		cutoff = before
		return 1, nil
	})

	rows, err := task.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), cutoff, time.Second)
}
