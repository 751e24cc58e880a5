package e2e

import (
	"net/http"
	"testing"
)

func TestGrammarCheck(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/grammar/check",
		`{"text":"I love writting songs","language":"en-US"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["language"] != "en-US" {
		t.Errorf("expected language 'en-US', got %v", body["language"])
	}
	matches, ok := body["matches"].([]interface{})
	if !ok || len(matches) != 1 {
		t.Fatalf("expected 1 match, got %v", body["matches"])
	}

	match := matches[0].(map[string]interface{})
	if match["offset"] != float64(7) {
		t.Errorf("expected offset 7, got %v", match["offset"])
	}
	if match["length"] != float64(8) {
		t.Errorf("expected length 8, got %v", match["length"])
	}
	replacements, ok := match["replacements"].([]interface{})
	if !ok || len(replacements) != 1 || replacements[0] != "writing" {
		t.Errorf("expected replacement 'writing', got %v", match["replacements"])
	}
}

func TestGrammarCheckClean(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/grammar/check",
		`{"text":"I love writing songs"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	matches, ok := body["matches"].([]interface{})
	if !ok {
		t.Fatalf("expected 'matches' array, got %v", body)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches for clean text, got %v", matches)
	}
}

func TestGrammarCheckValidation(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/grammar/check", `{"text":""}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	// Unsupported language code
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/grammar/check",
		`{"text":"hello","language":"xx-XX"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestGrammarRequiresAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/grammar/check",
		`{"text":"hello"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}
