package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/campus-forum/pkg/logger"
)

// CleanupTask deletes stale rows and reports how many went
type CleanupTask struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

type CleanupWorker struct {
	tasks    []CleanupTask
	interval time.Duration
	logger   *logger.Logger
}

func NewCleanupWorker(interval time.Duration, log *logger.Logger, tasks ...CleanupTask) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupWorker{
		tasks:    tasks,
		interval: interval,
		logger:   log.WithFields(map[string]interface{}{"worker": "cleanup"}),
	}
}

// Start runs every task immediately and then once per interval until ctx
// is done.
func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("cleanup worker started", "interval", w.interval.String())
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs each task in order; a failing task does not stop the others.
func (w *CleanupWorker) RunOnce(ctx context.Context) {
	for _, task := range w.tasks {
		if ctx.Err() != nil {
			return
		}
		rows, err := task.Run(ctx)
		if err != nil {
			w.logger.Error(err, "cleanup task failed", "task", task.Name)
			continue
		}
		if rows > 0 {
			w.logger.Info("cleanup task removed rows", "task", task.Name, "rows", rows)
		}
	}
}

// RetentionTask adapts a delete-older-than function to a CleanupTask
func RetentionTask(name string, retention time.Duration, deleteBefore func(ctx context.Context, before time.Time) (int64, error)) CleanupTask {
	return CleanupTask{
		Name: name,
		Run: func(ctx context.Context) (int64, error) {
			return deleteBefore(ctx, time.Now().Add(-retention))
		},
	}
}
