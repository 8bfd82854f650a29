package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"testing"

	"aichat/internal/account"
	"aichat/internal/blob"
	"aichat/internal/config"
	"aichat/internal/debounce"
	"aichat/internal/llm"
	"aichat/internal/store"
)

type stubDispatcher struct {
	content string
	model   string
	err     error

	lastModel  string
	lastPrompt string
}

func (s *stubDispatcher) Dispatch(_ context.Context, model, prompt string) (llm.Completion, error) {
	s.lastModel = model
	s.lastPrompt = prompt
	if s.err != nil {
		return llm.Completion{}, s.err
	}
	answered := s.model
	if answered == "" {
		answered = model
	}
	return llm.Completion{Content: s.content, Model: answered}, nil
}

type stubObjectStore struct {
	lastFilename    string
	lastContentType string
	lastData        []byte
	err             error
}

func (s *stubObjectStore) Backend() string {
	return "stub"
}

func (s *stubObjectStore) Put(_ context.Context, filename, contentType string, data []byte) (blob.Object, error) {
	s.lastFilename = filename
	s.lastContentType = contentType
	s.lastData = data
	if s.err != nil {
		return blob.Object{}, s.err
	}
	return blob.Object{
		URL:         "https://blobs.example.com/" + filename,
		Pathname:    filename,
		ContentType: contentType,
	}, nil
}

type testDeps struct {
	users      *account.Users
	sessions   *account.Sessions
	history    store.HistoryStore
	votes      store.VoteStore
	saves      *debounce.Guard
	uploads    *stubObjectStore
	dispatcher *stubDispatcher
}

func newTestHandler(t *testing.T) (Handler, *testDeps) {
	t.Helper()
	return newTestHandlerWithWindow(t, debounce.DefaultWindow)
}

func newTestHandlerWithWindow(t *testing.T, window time.Duration) (Handler, *testDeps) {
	t.Helper()

	deps := &testDeps{
		users:      account.NewUsers(),
		sessions:   account.NewSessions(time.Hour),
		history:    store.NewMemoryHistory(),
		votes:      store.NewMemoryVotes(),
		saves:      debounce.NewGuard(window),
		uploads:    &stubObjectStore{},
		dispatcher: &stubDispatcher{content: "stub answer"},
	}

	cfg := config.Config{
		SessionCookieName: "chat_session",
		AllowedOrigins:    []string{"http://localhost:3001"},
	}

	handler := NewHandler(cfg, deps.users, deps.sessions, deps.history, deps.votes, deps.saves, deps.uploads, deps.dispatcher)
	return handler, deps
}

func requestWithSessionUser(req *http.Request, user account.User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), sessionUserContextKey, user))
}

func decodeJSONBody(t *testing.T, resp *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, resp.Body.String())
	}
}

var errStubFailure = errors.New("stub failure")
