package worker

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/songpad/api/internal/service"
)

// TaskTypeReconcile is the asynq task type for the periodic sweep.
const TaskTypeReconcile = "songs:reconcile"

// NewReconcileTask builds the scheduler task for a reconciliation sweep.
func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReconcile, nil)
}

// ReconcileWorker runs the server-side reconciliation sweep: it re-queries
// the synthesis API for non-terminal song tasks whose clients stopped
// polling, so every task eventually reaches a terminal state even when no
// webhook arrives.
type ReconcileWorker struct {
	songService *service.SongService
}

// NewReconcileWorker creates a new reconcile worker
func NewReconcileWorker(songService *service.SongService) *ReconcileWorker {
	return &ReconcileWorker{
		songService: songService,
	}
}

// ProcessTask handles one sweep.
func (w *ReconcileWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	refreshed, err := w.songService.ReconcileStale(ctx, start)
	if err != nil {
		log.Printf("Reconcile sweep failed: %v", err)
		return err
	}

	if refreshed > 0 {
		log.Printf("Reconcile sweep refreshed %d task(s) in %s", refreshed, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
