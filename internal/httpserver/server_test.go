package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fueltrack/fueltrack-bot/internal/health"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(pingErr error) *Server {
	checker := health.New(health.Config{Store: fakePinger{err: pingErr}})
	return New(":0", checker, "test-install-id", log.New(io.Discard, "", 0))
}

func TestRootServesAliveMessage(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Body.String() != AliveMessage {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestHealthHealthy(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload struct {
		Status    health.Status `json:"status"`
		InstallID string        `json:"install_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Status != health.StatusHealthy {
		t.Fatalf("expected healthy, got %s", payload.Status)
	}
	if payload.InstallID != "test-install-id" {
		t.Fatalf("unexpected install id %q", payload.InstallID)
	}
}

func TestHealthUnhealthyReturns503(t *testing.T) {
	srv := newTestServer(errors.New("store down"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
