package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/leadsplit/backend/internal/auth"
	"github.com/leadsplit/backend/internal/config"
	"github.com/leadsplit/backend/internal/distributor"
	"github.com/leadsplit/backend/internal/normalize"
	"github.com/leadsplit/backend/internal/storage"
	"github.com/leadsplit/backend/internal/websocket"
	"github.com/rs/zerolog"
)

// envelope mirrors the response wrapper for decoding in tests.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// captureNotifier records upload events instead of pushing them.
type captureNotifier struct {
	events []websocket.UploadEvent
}

func (n *captureNotifier) NotifyUpload(ownerID string, event websocket.UploadEvent) {
	n.events = append(n.events, event)
}

type testEnv struct {
	router   http.Handler
	store    *storage.MemoryStore
	notifier *captureNotifier
	token    string
}

// newTestEnv wires the handlers onto a router the way the server does,
// registers a user and returns their token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		MaxUploadBytes: 10_000_000,
	}
	logger := zerolog.Nop()

	notifier := &captureNotifier{}
	service := distributor.NewService(store, normalize.PolicyRejectBatch, logger)
	authHandler := NewAuthHandler(store, cfg, logger)
	agentHandler := NewAgentHandler(store, logger)
	listHandler := NewListHandler(service, notifier, cfg.MaxUploadBytes, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg))

		r.Get("/api/auth/me", authHandler.Me)

		r.Route("/api/agents", func(r chi.Router) {
			r.Get("/", agentHandler.List)
			r.Post("/", agentHandler.Create)
			r.Get("/{agentId}", agentHandler.Get)
			r.Put("/{agentId}", agentHandler.Update)
			r.Delete("/{agentId}", agentHandler.Delete)
		})

		r.Route("/api/lists", func(r chi.Router) {
			r.Get("/", listHandler.GetAll)
			r.Post("/upload", listHandler.Upload)
			r.Get("/summary", listHandler.Summary)
			r.Get("/agent/{agentId}", listHandler.GetByAgent)
		})
	})

	env := &testEnv{router: r, store: store, notifier: notifier}

	rec := env.request(t, http.MethodPost, "/api/auth/register", "",
		jsonBody(t, map[string]string{
			"name":     "Test User",
			"email":    "user@example.com",
			"password": "secret123",
		}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed to register test user: status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse register response: %v", err)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to parse token payload: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("register returned no token")
	}
	env.token = payload.Token

	return env
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func (e *testEnv) request(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createAgent(t *testing.T, name, email string) string {
	t.Helper()
	rec := e.request(t, http.MethodPost, "/api/agents/", e.token,
		jsonBody(t, map[string]string{"name": name, "email": email, "phone": "+491510000000"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed to create agent: status %d, body %s", rec.Code, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse create response: %v", err)
	}
	var agent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &agent); err != nil {
		t.Fatalf("failed to parse agent: %v", err)
	}
	return agent.ID
}

// uploadFile posts a multipart file to /api/lists/upload.
func (e *testEnv) uploadFile(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/lists/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse response envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}
