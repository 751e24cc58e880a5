package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/songpad/api/internal/auth"
	"github.com/songpad/api/internal/client"
	"github.com/songpad/api/internal/config"
	"github.com/songpad/api/internal/handler"
	"github.com/songpad/api/internal/middleware"
	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/service"
	"github.com/songpad/api/internal/store"
	ws "github.com/songpad/api/internal/websocket"
)

const (
	testJWTSecret = "test-secret-for-e2e"
	testUserID    = "test-user-123"
)

// fakeSynth implements client.SongSynthesizer with controllable state so
// tests can drive task transitions without the real API.
type fakeSynth struct {
	mu        sync.Mutex
	nextID    int
	statuses  map[string]*client.TaskStatusResponse
	submitErr error
	statusErr error
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{statuses: make(map[string]*client.TaskStatusResponse)}
}

func (f *fakeSynth) SubmitSong(ctx context.Context, req *client.SubmitSongRequest) (*client.SubmitSongResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.nextID++
	id := fmt.Sprintf("ext-task-%d", f.nextID)
	f.statuses[id] = &client.TaskStatusResponse{TaskID: id, Status: model.TaskStatusQueued}
	return &client.SubmitSongResponse{TaskID: id, Status: model.TaskStatusQueued}, nil
}

func (f *fakeSynth) GetTaskStatus(ctx context.Context, externalID string) (*client.TaskStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if st, ok := f.statuses[externalID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, fmt.Errorf("unknown task %s", externalID)
}

// setStatus sets what the fake API will report for a task from now on.
func (f *fakeSynth) setStatus(externalID string, status model.TaskStatus, audioURL, failedReason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[externalID] = &client.TaskStatusResponse{
		TaskID:       externalID,
		Status:       status,
		AudioURL:     audioURL,
		FailedReason: failedReason,
	}
}

func (f *fakeSynth) setSubmitErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitErr = err
}

func (f *fakeSynth) setStatusErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusErr = err
}

// fakeGrammar implements client.GrammarChecker with a single canned rule:
// any occurrence of "writting" is flagged with the obvious fix.
type fakeGrammar struct{}

func (fakeGrammar) Check(ctx context.Context, text, language string) (*client.CheckResult, error) {
	result := &client.CheckResult{}
	result.Language.Code = "en-US"
	result.Language.Name = "English (US)"

	if idx := strings.Index(text, "writting"); idx != -1 {
		var m client.CheckMatch
		m.Offset = idx
		m.Length = len("writting")
		m.Message = "Possible spelling mistake found."
		m.ShortMessage = "Spelling"
		m.Replacements = append(m.Replacements, struct {
			Value string `json:"value"`
		}{Value: "writing"})
		m.Rule.ID = "MORFOLOGIK_RULE_EN_US"
		m.Rule.Category.ID = "TYPOS"
		m.Rule.Category.Name = "Possible Typo"
		result.Matches = append(result.Matches, m)
	}
	return result, nil
}

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	synth *fakeSynth
}

// setupApp creates a Fiber app identical to main.go but backed by an
// in-memory sqlite database and fake external clients.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// :memory: is per-connection; keep the pool at one
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	// Redis (localhost — rate limiter fail-opens if not running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	validate := validator.New()

	// WebSocket hub for task notifications
	hub := ws.NewHub()
	go hub.Run()

	// External clients — fakes and unconfigured mocks
	synth := newFakeSynth()
	groqClient := client.NewGroqClient(&config.GroqConfig{}) // no API key → mock

	// Stores
	docStore := store.NewDocumentStore(db)
	songStore := store.NewSongStore(db)

	// Services
	documentService := service.NewDocumentService(docStore)
	songService := service.NewSongService(docStore, songStore, synth, hub)
	archiveService := service.NewArchiveService(nil, songService) // nil storage → mock URLs
	grammarService := service.NewGrammarService(fakeGrammar{})
	lyricsService := service.NewLyricsService(groqClient)

	// Handlers
	documentHandler := handler.NewDocumentHandler(documentService, validate)
	songHandler := handler.NewSongHandler(songService, archiveService, validate)
	webhookHandler := handler.NewWebhookHandler(songService, validate)
	grammarHandler := handler.NewGrammarHandler(grammarService, validate)
	lyricsHandler := handler.NewLyricsHandler(lyricsService, validate)

	// Auth handler (for /auth/verify)
	authHandler := handler.NewAuthHandler(nil, testJWTSecret)

	// Auth middleware — legacy HMAC only
	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":    false,
				"suno":    true,
				"grammar": true,
				"r2":      false,
				"auth":    true,
			},
		})
	})
	app.Get("/auth/verify", authHandler.Verify)
	app.Post("/webhooks/suno", webhookHandler.SunoCallback)

	// API routes (authenticated)
	api := app.Group("/api", authMiddleware.Authenticate())

	docs := api.Group("/documents")
	docs.Post("/", documentHandler.Create)
	docs.Get("/", documentHandler.List)
	docs.Get("/:docId", documentHandler.Get)
	docs.Put("/:docId", documentHandler.Update)
	docs.Delete("/:docId", documentHandler.Delete)

	// Use very high rate limits so tests don't get blocked
	docs.Post("/:docId/songs", rateLimiter.SongsLimit(10000), songHandler.Submit)
	docs.Get("/:docId/songs", songHandler.List)
	api.Delete("/songs/:taskId", songHandler.Delete)
	api.Post("/songs/:taskId/archive", songHandler.Archive)

	grammar := api.Group("/grammar", rateLimiter.GrammarLimit(10000))
	grammar.Post("/check", grammarHandler.Check)

	lyrics := api.Group("/lyrics", rateLimiter.TransformLimit(10000))
	lyrics.Post("/transform", lyricsHandler.Transform)

	return &testApp{app: app, synth: synth}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	return generateTokenFor(t, testUserID)
}

// generateTokenFor creates a token for an arbitrary user id.
func generateTokenFor(t *testing.T, userID string) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID: userID,
		Email:  userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "songpad-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request as the default test user.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// doAuthRequestAs performs an authenticated request as a specific user.
func doAuthRequestAs(t *testing.T, app *fiber.App, userID, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateTokenFor(t, userID)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// createDocument creates a document via the API and returns its id.
func createDocument(t *testing.T, app *fiber.App, title string) string {
	t.Helper()
	resp, err := doAuthRequest(t, app, http.MethodPost, "/api/documents/",
		fmt.Sprintf(`{"title":%q,"content":"{}"}`, title))
	if err != nil {
		t.Fatalf("create document request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
	body := parseJSON(t, resp)
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("document response missing id: %v", body)
	}
	return id
}

// submitSong submits lyrics for a document and returns (taskID, externalID).
func submitSong(t *testing.T, app *fiber.App, docID string) (string, string) {
	t.Helper()
	resp, err := doAuthRequest(t, app, http.MethodPost, "/api/documents/"+docID+"/songs",
		`{"lyrics":"la la la\nda da da","stylePrompt":"acoustic pop","model":"chirp-v4"}`)
	if err != nil {
		t.Fatalf("submit song request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
	body := parseJSON(t, resp)
	taskID, _ := body["id"].(string)
	externalID, _ := body["externalId"].(string)
	if taskID == "" || externalID == "" {
		t.Fatalf("song response missing ids: %v", body)
	}
	return taskID, externalID
}

// listTasks fetches the reconciled task list for a document.
func listTasks(t *testing.T, app *fiber.App, docID string) []map[string]interface{} {
	t.Helper()
	resp, err := doAuthRequest(t, app, http.MethodGet, "/api/documents/"+docID+"/songs", "")
	if err != nil {
		t.Fatalf("list songs request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	raw, ok := body["tasks"].([]interface{})
	if !ok {
		t.Fatalf("expected 'tasks' array, got %v", body)
	}
	tasks := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		tasks = append(tasks, r.(map[string]interface{}))
	}
	return tasks
}
