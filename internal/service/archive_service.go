package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/songpad/api/internal/client"
	"github.com/songpad/api/internal/model"
)

// ErrTaskNotArchivable is returned when a task has no audio to archive.
var ErrTaskNotArchivable = errors.New("task has no audio result")

// ArchiveService copies generated audio from the synthesis API's expiring
// hosting into our own R2 bucket.
type ArchiveService struct {
	r2Client   client.StorageClient
	songs      *SongService
	httpClient *http.Client
}

func NewArchiveService(r2Client client.StorageClient, songs *SongService) *ArchiveService {
	return &ArchiveService{
		r2Client: r2Client,
		songs:    songs,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Archive downloads the task's audio and re-uploads it under our bucket.
// Only succeeded tasks with an audio URL can be archived.
func (s *ArchiveService) Archive(ctx context.Context, ownerID, taskID string) (*model.SongArchiveResponse, error) {
	task, err := s.songs.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TaskStatusSucceeded || task.AudioURL == nil {
		return nil, ErrTaskNotArchivable
	}

	// Mock URL when storage is not configured, same as the other services
	if s.r2Client == nil {
		return &model.SongArchiveResponse{
			TaskID:      task.ID,
			ArchivedURL: fmt.Sprintf("https://mock-storage.example.com/songs/%s.mp3", task.ID),
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *task.AudioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("audio download failed (status %d): %s", resp.StatusCode, string(body))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	key := fmt.Sprintf("songs/%s.mp3", task.ID)
	archivedURL, err := s.r2Client.Upload(ctx, key, resp.Body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to archive audio: %w", err)
	}

	return &model.SongArchiveResponse{
		TaskID:      task.ID,
		ArchivedURL: archivedURL,
	}, nil
}
