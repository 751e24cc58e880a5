package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/store"
)

// DocumentService handles lyric document CRUD with per-owner access checks.
type DocumentService struct {
	docs *store.DocumentStore
}

func NewDocumentService(docs *store.DocumentStore) *DocumentService {
	return &DocumentService{docs: docs}
}

// Create makes a new document for the owner.
func (s *DocumentService) Create(ctx context.Context, ownerID string, req *model.DocumentCreateRequest) (*model.Document, error) {
	doc := &model.Document{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the owner's documents.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}

// Get returns one document after an ownership check.
func (s *DocumentService) Get(ctx context.Context, ownerID, documentID string) (*model.Document, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return doc, nil
}

// Update applies title/content changes to an owned document.
func (s *DocumentService) Update(ctx context.Context, ownerID, documentID string, req *model.DocumentUpdateRequest) (*model.Document, error) {
	doc, err := s.Get(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes an owned document; its song tasks are deleted with it.
func (s *DocumentService) Delete(ctx context.Context, ownerID, documentID string) error {
	if _, err := s.Get(ctx, ownerID, documentID); err != nil {
		return err
	}
	return s.docs.Delete(ctx, documentID)
}
