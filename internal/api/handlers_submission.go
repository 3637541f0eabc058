/**
 * @description
 * HTTP handlers for the submission workflow: filing work against a task and
 * the buyer's approve/reject decisions.
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

// CreateSubmissionHandler files the caller's work against a task.
func (h *Handlers) CreateSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.service.CreateSubmission(r.Context(), user.Email, req)
	if err != nil {
		h.writeDomainError(w, "create_submission", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sub)
}

// ListSubmissionsHandler returns every submission. Admin-only.
func (h *Handlers) ListSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListSubmissions(r.Context())
	if err != nil {
		h.writeDomainError(w, "list_submissions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, subs)
}

// ListBuyerSubmissionsHandler returns submissions against one buyer's tasks.
func (h *Handlers) ListBuyerSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	email := normalizeParamEmail(chi.URLParam(r, "email"))
	subs, err := h.service.ListSubmissionsForBuyer(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "list_buyer_submissions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, subs)
}

// ListWorkerSubmissionsHandler returns one worker's own submissions.
func (h *Handlers) ListWorkerSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	email := normalizeParamEmail(chi.URLParam(r, "workerEmail"))
	subs, err := h.service.ListSubmissionsForWorker(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "list_worker_submissions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, subs)
}

// ApproveSubmissionHandler settles a pending submission in the worker's
// favor and pays out the task's per-worker amount.
func (h *Handlers) ApproveSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	h.decideSubmission(w, r, "approve_submission", h.service.ApproveSubmission)
}

// RejectSubmissionHandler settles a pending submission against the worker
// and returns the slot to the task pool.
func (h *Handlers) RejectSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	h.decideSubmission(w, r, "reject_submission", h.service.RejectSubmission)
}

func (h *Handlers) decideSubmission(w http.ResponseWriter, r *http.Request, endpoint string, decide func(ctx context.Context, buyerEmail string, id uuid.UUID) (*domain.Submission, error)) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	owner := user.Email
	if user.Role == domain.RoleAdmin {
		owner = ""
	}

	sub, err := decide(r.Context(), owner, id)
	if err != nil {
		h.writeDomainError(w, endpoint, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}
