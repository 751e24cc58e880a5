package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/songpad/api/internal/config"
	"github.com/songpad/api/internal/model"
)

// SongSynthesizer defines the interface for the external song generation API.
type SongSynthesizer interface {
	SubmitSong(ctx context.Context, req *SubmitSongRequest) (*SubmitSongResponse, error)
	GetTaskStatus(ctx context.Context, externalID string) (*TaskStatusResponse, error)
}

// SunoClient implements SongSynthesizer for the Suno API.
type SunoClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	callbackURL string
}

// SubmitSongRequest represents the request for song generation.
type SubmitSongRequest struct {
	Lyrics      string `json:"prompt"`
	Style       string `json:"style,omitempty"`
	Model       string `json:"model,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// SubmitSongResponse represents the response from song submission. Status is
// whatever the API reports as the task's starting state.
type SubmitSongResponse struct {
	TaskID string           `json:"task_id"`
	Status model.TaskStatus `json:"status"`
}

// TaskStatusResponse represents a status query result.
type TaskStatusResponse struct {
	TaskID       string           `json:"task_id"`
	Status       model.TaskStatus `json:"status"`
	AudioURL     string           `json:"audio_url,omitempty"`
	FailedReason string           `json:"failed_reason,omitempty"`
}

// NewSunoClient creates a new Suno API client
func NewSunoClient(cfg *config.SunoConfig) *SunoClient {
	return &SunoClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
	}
}

// SubmitSong submits lyrics for generation and returns the external task id
// together with the task's initial status.
func (c *SunoClient) SubmitSong(ctx context.Context, req *SubmitSongRequest) (*SubmitSongResponse, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}
	var result SubmitSongResponse
	if err := c.post(ctx, "/v1/music/generate", req, &result); err != nil {
		return nil, err
	}
	if result.TaskID == "" {
		return nil, fmt.Errorf("submission response missing task id")
	}
	return &result, nil
}

// GetTaskStatus retrieves the current status of a generation task.
func (c *SunoClient) GetTaskStatus(ctx context.Context, externalID string) (*TaskStatusResponse, error) {
	endpoint := fmt.Sprintf("/v1/music/status/%s", externalID)
	var result TaskStatusResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post sends a POST request with JSON body
func (c *SunoClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *SunoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *SunoClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[Suno API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Suno API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Suno API] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Suno API] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("suno API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		log.Printf("[Suno API] ✗ unmarshal error for %s %s: %v (body: %s)", req.Method, req.URL.String(), err, string(respBody))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *SunoClient) IsConfigured() bool {
	return c.apiKey != ""
}
