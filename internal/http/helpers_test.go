package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/metrics"
	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/testfixtures"
)

type apiEnv struct {
	store    persistence.Store
	factory  *testfixtures.ServiceFactory
	services *application.Services
	metrics  *metrics.Metrics
	handler  http.Handler
}

type apiOption func(*RouterConfig)

func requireAuth() apiOption {
	return func(cfg *RouterConfig) { cfg.AuthRequired = true }
}

func newAPI(t *testing.T, store persistence.Store, opts ...apiOption) *apiEnv {
	t.Helper()

	m := metrics.New()
	factory := testfixtures.NewServiceFactory(testfixtures.WithRecorder(m))
	services := factory.Services(store)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := NewRouterConfig(services, logger)
	cfg.Metrics = m
	for _, opt := range opts {
		opt(&cfg)
	}

	return &apiEnv{
		store:    store,
		factory:  factory,
		services: services,
		metrics:  m,
		handler:  NewRouter(cfg),
	}
}

// seededDocument holds an employer, two employees and a 09:00-17:00 shift
// held by anna on the reference date.
func seededDocument() *persistence.Snapshot {
	users := []persistence.User{
		testfixtures.NewUser(testfixtures.WithUserID("boss"), testfixtures.WithUsername("szef"), testfixtures.WithName("Szef"), testfixtures.AsEmployer()),
		testfixtures.NewUser(testfixtures.WithUserID("anna"), testfixtures.WithUsername("anna"), testfixtures.WithName("Anna"), testfixtures.WithPassword("tajne"), testfixtures.WithPositions("barista")),
		testfixtures.NewUser(testfixtures.WithUserID("piotr"), testfixtures.WithUsername("piotr"), testfixtures.WithName("Piotr"), testfixtures.WithPositions("kelner")),
	}
	shifts := []persistence.Shift{
		testfixtures.NewShift(testfixtures.WithShiftID("morning"), testfixtures.AssignedTo("anna")),
	}
	return testfixtures.Document(users, shifts)
}

func (e *apiEnv) token(t *testing.T, userID string) string {
	t.Helper()
	snap, err := e.store.Load(t.Context())
	if err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
	user := snap.User(userID)
	if user == nil {
		t.Fatalf("unknown user %q", userID)
	}
	token, _, err := e.factory.Tokens().Generate(*user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorResponse {
	t.Helper()
	expectStatus(t, rec, status)
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != code {
		t.Fatalf("expected code %q, got %q (%s)", code, resp.Code, resp.Message)
	}
	if resp.Message == "" {
		t.Fatal("expected a non-empty error message")
	}
	return resp
}
