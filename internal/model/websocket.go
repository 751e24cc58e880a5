package model

// WebSocket message types
const (
	WSMessageTypeTaskUpdate = "task_update"
	WSMessageTypePing       = "ping"
	WSMessageTypePong       = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSTaskUpdateMessage notifies document viewers that a song task changed.
type WSTaskUpdateMessage struct {
	Type          string     `json:"type"`
	DocumentID    string     `json:"documentId"`
	TaskID        string     `json:"taskId"`
	Status        TaskStatus `json:"status"`
	AudioURL      *string    `json:"audioUrl,omitempty"`
	FailureReason *string    `json:"failureReason,omitempty"`
}
