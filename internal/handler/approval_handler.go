// internal/handler/approval_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/leadpilot-backend/internal/approval"
	appErrors "github.com/leadpilot/leadpilot-backend/internal/errors"
	"github.com/leadpilot/leadpilot-backend/internal/model"
	"github.com/leadpilot/leadpilot-backend/internal/repository"
)

// ApprovalHandler is the human review surface over the gate's pending set.
type ApprovalHandler struct {
	Gate *approval.Gate
	// Repo is optional; when set, resolved requests are persisted.
	Repo repository.ApprovalRepositoryInterface
}

func (h *ApprovalHandler) persist(req model.ApprovalRequest) {
	if h.Repo == nil {
		return
	}
	if err := h.Repo.Insert(&req); err != nil {
		log.Println("⚠️ failed to persist approval record:", err)
	}
}

func approvalError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrApprovalNotFound
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (h *ApprovalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Gate.Pending())
}

func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reviewer string `json:"reviewer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	req, err := h.Gate.Approve(chi.URLParam(r, "id"), body.Reviewer)
	if err != nil {
		approvalError(w, err)
		return
	}
	h.persist(req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(req)
}

func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reviewer string `json:"reviewer"`
		Note     string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	req, err := h.Gate.Reject(chi.URLParam(r, "id"), body.Reviewer, body.Note)
	if err != nil {
		approvalError(w, err)
		return
	}
	h.persist(req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(req)
}

func (h *ApprovalHandler) EditAndApprove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reviewer string `json:"reviewer"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Content == "" {
		http.Error(w, "edited content cannot be empty", http.StatusBadRequest)
		return
	}

	req, err := h.Gate.EditAndApprove(chi.URLParam(r, "id"), body.Reviewer, body.Content)
	if err != nil {
		approvalError(w, err)
		return
	}
	h.persist(req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(req)
}

func (h *ApprovalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Gate.GetStatistics())
}

// Edits exposes the reviewer-edit diffs for the downstream learning loop.
func (h *ApprovalHandler) Edits(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Gate.EditDiffs())
}
