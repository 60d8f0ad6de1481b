// internal/handler/account_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/leadpilot-backend/internal/safety"
)

// AccountHandler exposes derived account health and warning ingestion.
type AccountHandler struct {
	Guard *safety.Guard
}

func (h *AccountHandler) Health(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Guard.GetAccountHealth(accountID))
}

func (h *AccountHandler) AddWarning(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, "warning text cannot be empty", http.StatusBadRequest)
		return
	}

	h.Guard.AddWarning(chi.URLParam(r, "id"), body.Text)
	w.WriteHeader(http.StatusNoContent)
}
