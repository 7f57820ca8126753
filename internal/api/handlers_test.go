package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"example.com/timestats/internal/auth"
	"example.com/timestats/internal/stats"
)

func TestTimestatsReturnsRecords(t *testing.T) {
	handler := NewHandler(&mockRepo{snap: stats.Defaults()}, zerolog.Nop())

	rr := httptest.NewRecorder()
	handler.timestats(rr, httptest.NewRequest(http.MethodGet, "/timestats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	snap, err := stats.Decode(rr.Body)
	if err != nil {
		t.Fatalf("response does not decode as a snapshot: %v", err)
	}
	if len(snap) != 6 {
		t.Fatalf("expected 6 records got %d", len(snap))
	}
	weekly, err := snap[0].Metric(stats.Weekly)
	if err != nil || weekly.Current != 32 || weekly.Previous != 36 {
		t.Fatalf("unexpected work weekly metric %+v (%v)", weekly, err)
	}
}

func TestTimestatsEmptyStoreIsArray(t *testing.T) {
	handler := NewHandler(&mockRepo{}, zerolog.Nop())

	rr := httptest.NewRecorder()
	handler.timestats(rr, httptest.NewRequest(http.MethodGet, "/timestats", nil))

	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array got %q", rr.Body.String())
	}
}

func TestTimestatsStoreFailure(t *testing.T) {
	handler := NewHandler(&mockRepo{err: errors.New("connection refused")}, zerolog.Nop())

	rr := httptest.NewRecorder()
	handler.timestats(rr, httptest.NewRequest(http.MethodGet, "/timestats", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["type"] != "server_error" {
		t.Fatalf("unexpected error type %q", body["type"])
	}
}

func TestTimestatsRequiresScopeWhenAuthenticated(t *testing.T) {
	handler := NewHandler(&mockRepo{snap: stats.Defaults()}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/timestats", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Subject:   "dashboard",
		Scopes:    map[string]struct{}{"other": {}},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	rr := httptest.NewRecorder()
	handler.timestats(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestTimestatsRejectsPost(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(&mockRepo{}, zerolog.Nop()).RegisterRoutes(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/timestats", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

type mockRepo struct {
	snap stats.Snapshot
	err  error
}

func (m *mockRepo) ListRecords(ctx context.Context) (stats.Snapshot, error) {
	return m.snap, m.err
}
