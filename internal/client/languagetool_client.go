package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"encoding/json"

	"github.com/songpad/api/internal/config"
)

// GrammarChecker defines the interface for remote grammar checking.
type GrammarChecker interface {
	Check(ctx context.Context, text, language string) (*CheckResult, error)
}

// LanguageToolClient implements GrammarChecker against a LanguageTool-compatible API.
type LanguageToolClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// CheckResult is the parsed grammar check response.
type CheckResult struct {
	Language struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"language"`
	Matches []CheckMatch `json:"matches"`
}

// CheckMatch is one issue found in the checked text.
type CheckMatch struct {
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Message      string `json:"message"`
	ShortMessage string `json:"shortMessage"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Rule struct {
		ID       string `json:"id"`
		Category struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"category"`
	} `json:"rule"`
}

// NewLanguageToolClient creates a new grammar API client
func NewLanguageToolClient(cfg *config.GrammarConfig) *LanguageToolClient {
	return &LanguageToolClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Check sends text to the grammar API. The API takes form-encoded input.
func (c *LanguageToolClient) Check(ctx context.Context, text, language string) (*CheckResult, error) {
	if language == "" {
		language = "auto"
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", language)
	if c.apiKey != "" {
		form.Set("apiKey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grammar API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result CheckResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// IsConfigured returns true if the client has a base URL to talk to. The
// public LanguageTool endpoint works without an API key.
func (c *LanguageToolClient) IsConfigured() bool {
	return c.baseURL != ""
}
