package model

import "time"

// TaskStatus is the lifecycle state of a song generation task. Statuses are
// stored exactly as reported by the synthesis API.
type TaskStatus string

const (
	TaskStatusPreparing TaskStatus = "preparing"
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusTimedOut  TaskStatus = "timed_out"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether no further reconciliation should happen for a
// task in this status.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusTimedOut, TaskStatusCancelled:
		return true
	}
	return false
}

// IsFailure reports whether this status carries a failure reason.
func (s TaskStatus) IsFailure() bool {
	return s == TaskStatusFailed || s == TaskStatusTimedOut
}

// Rank orders statuses along the task lifecycle. All terminal statuses share
// the highest rank so an out-of-order notification can never move a task
// backwards. Unknown statuses rank lowest.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusPreparing:
		return 1
	case TaskStatusQueued:
		return 2
	case TaskStatusRunning:
		return 3
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusTimedOut, TaskStatusCancelled:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	return s.Rank() > 0
}

// Synthesis model variants accepted by the external API.
type SongModel string

const (
	SongModelChirpV3 SongModel = "chirp-v3-5"
	SongModelChirpV4 SongModel = "chirp-v4"
)

// SongTask tracks one song generation attempt against the external synthesis
// API. AudioURL is set only when the task succeeds; FailureReason only when
// it fails or times out — never both.
type SongTask struct {
	ID            string     `json:"id" gorm:"type:char(36);primaryKey"`
	DocumentID    string     `json:"documentId" gorm:"type:char(36);not null;index"`
	ExternalID    string     `json:"externalId" gorm:"size:64;uniqueIndex"`
	Status        TaskStatus `json:"status" gorm:"size:16;not null;index"`
	AudioURL      *string    `json:"audioUrl,omitempty" gorm:"size:1024"`
	FailureReason *string    `json:"failureReason,omitempty" gorm:"type:text"`
	StylePrompt   string     `json:"stylePrompt,omitempty" gorm:"size:512"`
	ModelVariant  SongModel  `json:"modelVariant,omitempty" gorm:"size:32"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TableName returns the table name for SongTask.
func (SongTask) TableName() string {
	return "song_tasks"
}

// SongSubmitRequest is the request body for submitting lyrics for generation.
type SongSubmitRequest struct {
	Lyrics      string    `json:"lyrics" validate:"required,min=1"`
	StylePrompt string    `json:"stylePrompt" validate:"omitempty,max=512"`
	Model       SongModel `json:"model" validate:"omitempty,oneof=chirp-v3-5 chirp-v4"`
}

// SongListResponse is the reconciled task list for a document.
type SongListResponse struct {
	Tasks []SongTask `json:"tasks"`
}

// SongWebhookPayload is the inbound status notification from the synthesis
// API. Choices carry per-take result URLs; the first audio URL wins.
type SongWebhookPayload struct {
	TaskID       string              `json:"task_id" validate:"required"`
	Status       TaskStatus          `json:"status" validate:"required"`
	Choices      []SongWebhookChoice `json:"choices,omitempty"`
	FailedReason string              `json:"failed_reason,omitempty"`
}

// SongWebhookChoice is one generated take inside a webhook payload.
type SongWebhookChoice struct {
	ID       string `json:"id"`
	AudioURL string `json:"audio_url"`
}

// AudioURL returns the first non-empty audio URL among the choices.
func (p *SongWebhookPayload) AudioURL() string {
	for _, c := range p.Choices {
		if c.AudioURL != "" {
			return c.AudioURL
		}
	}
	return ""
}

// SongArchiveResponse is returned after a succeeded task's audio has been
// copied to our own storage.
type SongArchiveResponse struct {
	TaskID      string `json:"taskId"`
	ArchivedURL string `json:"archivedUrl"`
}
