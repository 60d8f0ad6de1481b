package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/leadpilot-backend/internal/safety"
)

func newAccountRouter(guard *safety.Guard) *chi.Mux {
	h := &AccountHandler{Guard: guard}
	r := chi.NewRouter()
	r.Get("/accounts/{id}/health", h.Health)
	r.Post("/accounts/{id}/warnings", h.AddWarning)
	return r
}

func TestAccountHealthEndpoint(t *testing.T) {
	guard := safety.NewGuard(safety.DefaultLimits())
	router := newAccountRouter(guard)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acct-1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health safety.AccountHealth
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if health.Status != safety.HealthHealthy {
		t.Errorf("fresh account should be healthy, got %s", health.Status)
	}
}

func TestAddWarningFlipsHealth(t *testing.T) {
	guard := safety.NewGuard(safety.DefaultLimits())
	router := newAccountRouter(guard)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		body := bytes.NewReader([]byte(`{"text":"content blocked: spam pattern"}`))
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/acct-1/warnings", body))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}

	if got := guard.GetAccountHealth("acct-1").Status; got != safety.HealthWarning {
		t.Errorf("two warnings should degrade health to warning, got %s", got)
	}
}

func TestAddWarningRequiresText(t *testing.T) {
	guard := safety.NewGuard(safety.DefaultLimits())
	router := newAccountRouter(guard)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/acct-1/warnings", bytes.NewReader([]byte(`{}`))))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty warning, got %d", rec.Code)
	}
}
