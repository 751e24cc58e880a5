package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/songpad/api/internal/model"
)

// SongStore persists song generation tasks.
type SongStore struct {
	db *gorm.DB
}

func NewSongStore(db *gorm.DB) *SongStore {
	return &SongStore{db: db}
}

// Create inserts a new task.
func (s *SongStore) Create(ctx context.Context, task *model.SongTask) error {
	return s.db.WithContext(ctx).Create(task).Error
}

// Get returns a task by local id.
func (s *SongStore) Get(ctx context.Context, id string) (*model.SongTask, error) {
	var task model.SongTask
	err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// GetByExternalID returns a task by the id the synthesis API assigned.
func (s *SongStore) GetByExternalID(ctx context.Context, externalID string) (*model.SongTask, error) {
	var task model.SongTask
	err := s.db.WithContext(ctx).First(&task, "external_id = ?", externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// ListByDocument returns all tasks for a document, newest first.
func (s *SongStore) ListByDocument(ctx context.Context, documentID string) ([]model.SongTask, error) {
	var tasks []model.SongTask
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListNonTerminalBefore returns tasks still in a non-terminal status whose
// last update is older than the cutoff. Used by the reconciliation sweep.
func (s *SongStore) ListNonTerminalBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.SongTask, error) {
	var tasks []model.SongTask
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.TaskStatus{
			model.TaskStatusPreparing,
			model.TaskStatusQueued,
			model.TaskStatusRunning,
		}).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update saves the task's current field values.
func (s *SongStore) Update(ctx context.Context, task *model.SongTask) error {
	return s.db.WithContext(ctx).Save(task).Error
}

// Delete removes a single task.
func (s *SongStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.SongTask{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
