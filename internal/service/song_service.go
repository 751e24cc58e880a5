package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/songpad/api/internal/client"
	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/store"
)

// ErrForbidden is returned when a caller does not own the target resource.
var ErrForbidden = errors.New("forbidden")

// Reconciliation sweep backoff bounds. The re-check interval doubles as a
// task ages so abandoned tasks are queried less and less often.
const (
	reconcileBaseInterval = 30 * time.Second
	reconcileMaxInterval  = 10 * time.Minute
	reconcileBatchSize    = 100
)

// TaskNotifier receives task state changes for push delivery to clients.
type TaskNotifier interface {
	NotifyTaskUpdate(task *model.SongTask)
}

// SongService tracks song generation tasks against the external synthesis
// API. Task state is reconciled through two paths: inbound webhooks
// (ApplyWebhook) and on-read polling of the external API (ListForDocument),
// plus a server-side sweep (ReconcileStale) for tasks no client is watching.
type SongService struct {
	docs     *store.DocumentStore
	songs    *store.SongStore
	synth    client.SongSynthesizer
	notifier TaskNotifier
}

func NewSongService(docs *store.DocumentStore, songs *store.SongStore, synth client.SongSynthesizer, notifier TaskNotifier) *SongService {
	return &SongService{
		docs:     docs,
		songs:    songs,
		synth:    synth,
		notifier: notifier,
	}
}

// Submit sends lyrics to the synthesis API and persists a new task with the
// external id and initial status the API reported. Nothing is persisted when
// the external call fails.
func (s *SongService) Submit(ctx context.Context, ownerID, documentID string, req *model.SongSubmitRequest) (*model.SongTask, error) {
	if _, err := s.ownedDocument(ctx, ownerID, documentID); err != nil {
		return nil, err
	}

	resp, err := s.synth.SubmitSong(ctx, &client.SubmitSongRequest{
		Lyrics: req.Lyrics,
		Style:  req.StylePrompt,
		Model:  string(req.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("song submission failed: %w", err)
	}

	task := &model.SongTask{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		ExternalID:   resp.TaskID,
		Status:       resp.Status,
		StylePrompt:  req.StylePrompt,
		ModelVariant: req.Model,
	}

	if err := s.songs.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	log.Printf("[Songs] submitted task %s (external %s) status=%s", task.ID, task.ExternalID, task.Status)
	return task, nil
}

// ListForDocument returns the document's tasks after pull-path
// reconciliation: every non-terminal task is re-queried against the external
// API and its fresh status written through. A failed status query
// force-fails the task rather than leaving it pending forever.
func (s *SongService) ListForDocument(ctx context.Context, ownerID, documentID string) ([]model.SongTask, error) {
	if _, err := s.ownedDocument(ctx, ownerID, documentID); err != nil {
		return nil, err
	}

	tasks, err := s.songs.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].Status.IsTerminal() {
			continue
		}
		s.refreshTask(ctx, &tasks[i])
	}

	return tasks, nil
}

// refreshTask queries the external API for a single non-terminal task and
// writes the result through. Query failure transitions the task to failed.
func (s *SongService) refreshTask(ctx context.Context, task *model.SongTask) {
	resp, err := s.synth.GetTaskStatus(ctx, task.ExternalID)
	if err != nil {
		reason := fmt.Sprintf("status query failed: %v", err)
		log.Printf("[Songs] task %s (external %s): %s", task.ID, task.ExternalID, reason)
		if _, applyErr := s.applyUpdate(ctx, task, model.TaskStatusFailed, "", reason); applyErr != nil {
			log.Printf("[Songs] failed to fail task %s: %v", task.ID, applyErr)
		}
		return
	}

	if _, err := s.applyUpdate(ctx, task, resp.Status, resp.AudioURL, resp.FailedReason); err != nil {
		log.Printf("[Songs] failed to update task %s: %v", task.ID, err)
	}
}

// ApplyWebhook handles a push-path status notification. The task is located
// by external id; an unknown id is a not-found error, never a new record.
func (s *SongService) ApplyWebhook(ctx context.Context, payload *model.SongWebhookPayload) (*model.SongTask, error) {
	task, err := s.songs.GetByExternalID(ctx, payload.TaskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.applyUpdate(ctx, task, payload.Status, payload.AudioURL(), payload.FailedReason); err != nil {
		return nil, err
	}
	return task, nil
}

// applyUpdate writes an external status report to the task, enforcing the
// field rules shared by both reconciliation paths:
//   - a terminal status is sticky; a report with a lower lifecycle rank is
//     dropped (stale or out-of-order delivery)
//   - the audio URL is written only on success, the failure reason only on
//     failure, so the two can never both be set
//   - re-applying an identical report changes nothing
//
// Returns whether the stored record changed.
func (s *SongService) applyUpdate(ctx context.Context, task *model.SongTask, status model.TaskStatus, audioURL, failedReason string) (bool, error) {
	cur := task.Status
	if cur.IsTerminal() && status != cur {
		log.Printf("[Songs] task %s: dropping %s report, already %s", task.ID, status, cur)
		return false, nil
	}
	if status.Rank() < cur.Rank() {
		log.Printf("[Songs] task %s: dropping stale %s report, already %s", task.ID, status, cur)
		return false, nil
	}

	changed := status != cur
	task.Status = status

	if status == model.TaskStatusSucceeded && audioURL != "" {
		if task.AudioURL == nil || *task.AudioURL != audioURL {
			task.AudioURL = &audioURL
			changed = true
		}
	}
	if status.IsFailure() && failedReason != "" {
		if task.FailureReason == nil || *task.FailureReason != failedReason {
			task.FailureReason = &failedReason
			changed = true
		}
	}

	if !changed {
		return false, nil
	}

	if err := s.songs.Update(ctx, task); err != nil {
		return false, err
	}

	log.Printf("[Songs] task %s (external %s) → %s", task.ID, task.ExternalID, task.Status)
	if s.notifier != nil {
		s.notifier.NotifyTaskUpdate(task)
	}
	return true, nil
}

// Delete removes a single task after an ownership check. The external job is
// left alone: the synthesis API offers no cancellation, and its artifacts
// are not garbage-collected here.
func (s *SongService) Delete(ctx context.Context, ownerID, taskID string) error {
	task, err := s.songs.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.ownedDocument(ctx, ownerID, task.DocumentID); err != nil {
		return err
	}
	return s.songs.Delete(ctx, taskID)
}

// Get returns a single task after an ownership check.
func (s *SongService) Get(ctx context.Context, ownerID, taskID string) (*model.SongTask, error) {
	task, err := s.songs.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedDocument(ctx, ownerID, task.DocumentID); err != nil {
		return nil, err
	}
	return task, nil
}

// ReconcileStale runs one server-side reconciliation sweep: non-terminal
// tasks whose re-check interval (by age) has elapsed are re-queried and
// written through, so tasks abandoned by their clients still reach a
// terminal state. Returns the number of tasks refreshed.
func (s *SongService) ReconcileStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-reconcileBaseInterval)
	tasks, err := s.songs.ListNonTerminalBefore(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for i := range tasks {
		task := &tasks[i]
		if now.Sub(task.UpdatedAt) < reconcileInterval(now.Sub(task.CreatedAt)) {
			continue
		}
		s.refreshTask(ctx, task)
		refreshed++
	}
	return refreshed, nil
}

// reconcileInterval returns the minimum time between sweep re-checks for a
// task of the given age: the base interval, doubled for every doubling of
// age past two minutes, capped.
func reconcileInterval(age time.Duration) time.Duration {
	interval := reconcileBaseInterval
	for threshold := 2 * time.Minute; age >= threshold && interval < reconcileMaxInterval; threshold *= 2 {
		interval *= 2
	}
	if interval > reconcileMaxInterval {
		interval = reconcileMaxInterval
	}
	return interval
}

// ownedDocument loads a document and verifies ownership.
func (s *SongService) ownedDocument(ctx context.Context, ownerID, documentID string) (*model.Document, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return doc, nil
}
