package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/songpad/api/internal/model"
)

// DocumentStore persists lyric documents.
type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Create inserts a new document.
func (s *DocumentStore) Create(ctx context.Context, doc *model.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

// Get returns a document by id.
func (s *DocumentStore) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// ListByOwner returns all documents owned by a user, newest first.
func (s *DocumentStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	var docs []model.Document
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Update saves the mutable fields of a document.
func (s *DocumentStore) Update(ctx context.Context, doc *model.Document) error {
	return s.db.WithContext(ctx).Save(doc).Error
}

// Delete removes a document. Song tasks go with it via the FK cascade; this
// also deletes them explicitly so the invariant holds on databases where the
// constraint was not created (sqlite in tests).
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.SongTask{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Document{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
