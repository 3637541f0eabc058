/**
 * @description
 * HTTP handlers for the withdrawal workflow: workers filing cash-out
 * requests and the admin approval queue.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

// CreateWithdrawalHandler files the caller's cash-out request.
func (h *Handlers) CreateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wd, err := h.service.CreateWithdrawal(r.Context(), user.Email, req)
	if err != nil {
		h.writeDomainError(w, "create_withdrawal", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, wd)
}

// ListPendingWithdrawalsHandler returns the admin approval queue.
func (h *Handlers) ListPendingWithdrawalsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPendingWithdrawals(r.Context())
	if err != nil {
		h.writeDomainError(w, "list_pending_withdrawals", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// ListWorkerWithdrawalsHandler returns one worker's own requests.
func (h *Handlers) ListWorkerWithdrawalsHandler(w http.ResponseWriter, r *http.Request) {
	email := normalizeParamEmail(chi.URLParam(r, "workerEmail"))
	list, err := h.service.ListWithdrawalsForWorker(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "list_worker_withdrawals", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// UpdateWithdrawalHandler applies the admin decision on a pending request.
// The only supported transition is pending → approved.
func (h *Handlers) UpdateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Status) != domain.WithdrawalApproved {
		h.writeError(w, http.StatusBadRequest, "Status must be \"approved\"")
		return
	}

	wd, err := h.service.ApproveWithdrawal(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "approve_withdrawal", err)
		return
	}
	h.writeJSON(w, http.StatusOK, wd)
}
