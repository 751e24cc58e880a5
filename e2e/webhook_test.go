package e2e

import (
	"net/http"
	"testing"
)

func TestWebhookSuccess(t *testing.T) {
	ta := setupApp(t)

	docID := createDocument(t, ta.app, "Callback Target")
	_, externalID := submitSong(t, ta.app, docID)

	resp, err := doRequest(ta.app, http.MethodPost, "/webhooks/suno",
		`{"task_id":"`+externalID+`","status":"succeeded","choices":[{"id":"c1","audio_url":"https://cdn.example.com/final.mp3"}]}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	tasks := listTasks(t, ta.app, docID)
	if tasks[0]["status"] != "succeeded" {
		t.Errorf("expected status 'succeeded', got %v", tasks[0]["status"])
	}
	if tasks[0]["audioUrl"] != "https://cdn.example.com/final.mp3" {
		t.Errorf("expected audioUrl from callback, got %v", tasks[0]["audioUrl"])
	}
}

func TestWebhookFailure(t *testing.T) {
	ta := setupApp(t)

	docID := createDocument(t, ta.app, "Doomed Song")
	_, externalID := submitSong(t, ta.app, docID)

	resp, err := doRequest(ta.app, http.MethodPost, "/webhooks/suno",
		`{"task_id":"`+externalID+`","status":"failed","failed_reason":"content policy violation"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	tasks := listTasks(t, ta.app, docID)
	if tasks[0]["status"] != "failed" {
		t.Errorf("expected status 'failed', got %v", tasks[0]["status"])
	}
	if tasks[0]["failureReason"] != "content policy violation" {
		t.Errorf("expected failure reason from callback, got %v", tasks[0]["failureReason"])
	}
	if _, ok := tasks[0]["audioUrl"]; ok {
		t.Error("audioUrl must not be set on a failed task")
	}
}

func TestWebhookUnknownTask(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/webhooks/suno",
		`{"task_id":"never-submitted","status":"succeeded"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestWebhookValidation(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/webhooks/suno",
		`{"status":"succeeded"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestWebhookOutOfOrderDelivery(t *testing.T) {
	ta := setupApp(t)

	docID := createDocument(t, ta.app, "Slow Network")
	_, externalID := submitSong(t, ta.app, docID)

	// Terminal report arrives first
	resp, err := doRequest(ta.app, http.MethodPost, "/webhooks/suno",
		`{"task_id":"`+externalID+`","status":"succeeded","choices":[{"id":"c1","audio_url":"https://cdn.example.com/done.mp3"}]}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	// A delayed "running" report must not move the task backwards
	resp, err = doRequest(ta.app, http.MethodPost, "/webhooks/suno",
		`{"task_id":"`+externalID+`","status":"running"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	tasks := listTasks(t, ta.app, docID)
	if tasks[0]["status"] != "succeeded" {
		t.Errorf("expected task to stay succeeded, got %v", tasks[0]["status"])
	}
	if tasks[0]["audioUrl"] != "https://cdn.example.com/done.mp3" {
		t.Errorf("expected audioUrl to survive the stale report, got %v", tasks[0]["audioUrl"])
	}
}

func TestWebhookRedelivery(t *testing.T) {
	ta := setupApp(t)

	docID := createDocument(t, ta.app, "At Least Once")
	_, externalID := submitSong(t, ta.app, docID)

	payload := `{"task_id":"` + externalID + `","status":"succeeded","choices":[{"id":"c1","audio_url":"https://cdn.example.com/dup.mp3"}]}`

	for i := 0; i < 3; i++ {
		resp, err := doRequest(ta.app, http.MethodPost, "/webhooks/suno", payload, nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusOK)
	}

	tasks := listTasks(t, ta.app, docID)
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(tasks))
	}
	if tasks[0]["status"] != "succeeded" || tasks[0]["audioUrl"] != "https://cdn.example.com/dup.mp3" {
		t.Errorf("redelivery changed the task: %v", tasks[0])
	}
}
