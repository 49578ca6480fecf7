package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hsakai/skillview/backend/events"
)

// TaskRunner runs best-effort background work decoupled from the
// request/response lifecycle. Failures go to the error sink and are never
// surfaced to the submitter. This is deliberately not a retry queue: a task
// runs at most once.
type TaskRunner struct {
	bus *events.Bus
	wg  sync.WaitGroup
}

func NewTaskRunner(bus *events.Bus) *TaskRunner {
	return &TaskRunner{bus: bus}
}

// Submit schedules fn to run on its own goroutine after delay. The sessionID
// is carried into error events so subscribers can route failures.
func (r *TaskRunner) Submit(name string, sessionID string, delay time.Duration, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Background task panicked", "task", name, "session_id", sessionID, "panic", rec)
			}
		}()

		if delay > 0 {
			time.Sleep(delay)
		}

		slog.Info("Background task started", "task", name, "session_id", sessionID)
		if err := fn(context.Background()); err != nil {
			slog.Error("Background task failed", "task", name, "session_id", sessionID, "error", err)
			if r.bus != nil {
				r.bus.PublishError(events.ErrorEvent{
					SessionID: sessionID,
					Task:      name,
					Message:   err.Error(),
					Timestamp: time.Now(),
				})
			}
			return
		}
		slog.Info("Background task completed", "task", name, "session_id", sessionID)
	}()
}

// Wait blocks until all submitted tasks finish. Used on shutdown and in tests.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}
