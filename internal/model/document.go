package model

import "time"

// Document is a lyric document owned by a single user. Content holds the
// rich-text editor state as an opaque JSON blob; the backend never interprets
// it. Deleting a document cascades deletion of its song tasks.
type Document struct {
	ID        string     `json:"id" gorm:"type:char(36);primaryKey"`
	OwnerID   string     `json:"ownerId" gorm:"size:64;not null;index"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	Content   string     `json:"content" gorm:"type:longtext"`
	Tasks     []SongTask `json:"-" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName returns the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// DocumentCreateRequest is the request body for creating a document.
type DocumentCreateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"omitempty"`
}

// DocumentUpdateRequest is the request body for updating a document.
type DocumentUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content"`
}

// DocumentListResponse is the response for listing a user's documents.
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
}
