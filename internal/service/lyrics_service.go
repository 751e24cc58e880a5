package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/songpad/api/internal/client"
	"github.com/songpad/api/internal/model"
)

// LyricsTransformer defines the interface for LLM lyric transforms.
type LyricsTransformer interface {
	Transform(ctx context.Context, req *model.LyricsTransformRequest) (*model.LyricsTransformResponse, error)
}

// LyricsService rewrites lyric text through the Groq chat-completion API.
type LyricsService struct {
	groqClient *client.GroqClient
}

// NewLyricsService creates a new lyrics service with Groq client
func NewLyricsService(groqClient *client.GroqClient) *LyricsService {
	return &LyricsService{
		groqClient: groqClient,
	}
}

// Transform reworks lyric text per the requested mode.
func (s *LyricsService) Transform(ctx context.Context, req *model.LyricsTransformRequest) (*model.LyricsTransformResponse, error) {
	// Use mock response if client is not configured
	if s.groqClient == nil || !s.groqClient.IsConfigured() {
		return s.transformMock(req)
	}

	systemPrompt := s.buildSystemPrompt()
	userPrompt := s.buildTransformPrompt(req)

	response, err := s.groqClient.ChatCompletion(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("AI transform failed: %w", err)
	}

	text, err := s.parseTransformResponse(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return &model.LyricsTransformResponse{
		Text: text,
	}, nil
}

func (s *LyricsService) buildSystemPrompt() string {
	return `You are a professional songwriter and lyric editor.
Your task is to rework song lyrics exactly as instructed while preserving the author's voice.
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`
}

func (s *LyricsService) buildTransformPrompt(req *model.LyricsTransformRequest) string {
	var goal string
	switch req.Mode {
	case model.TransformRhyme:
		goal = "Rework the lyrics so consecutive line pairs rhyme, changing as few words as possible."
	case model.TransformShorten:
		goal = "Tighten the lyrics: cut filler words and merge redundant lines, keeping the meaning."
	case model.TransformFormalize:
		goal = "Rewrite the lyrics in a more formal, poetic register without changing the meaning."
	default:
		goal = "Rewrite the lyrics to improve flow, imagery, and emotional impact."
	}

	instructions := ""
	if req.Instructions != "" {
		instructions = fmt.Sprintf("\nSpecific instructions: %s", req.Instructions)
	}

	return fmt.Sprintf(`%s%s

Current lyrics:
%s

Keep the same overall line structure unless the task requires otherwise.

Output as JSON: {"text": "transformed lyrics with \n between lines"}`,
		goal, instructions, req.Text)
}

func (s *LyricsService) parseTransformResponse(response string) (string, error) {
	response = extractJSON(response)

	var result struct {
		Text string `json:"text"`
	}

	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if result.Text == "" {
		return "", fmt.Errorf("no text in response")
	}

	return result.Text, nil
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(s string) string {
	// Find the first { and last }
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

// Mock implementation for development/testing
func (s *LyricsService) transformMock(req *model.LyricsTransformRequest) (*model.LyricsTransformResponse, error) {
	lines := strings.Split(req.Text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return &model.LyricsTransformResponse{
		Text: strings.Join(lines, "\n"),
	}, nil
}
