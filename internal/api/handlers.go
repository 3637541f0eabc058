/**
 * @description
 * This file contains the HTTP handlers for the marketplace's account and
 * admin endpoints, plus the shared response helpers and the single mapping
 * from domain errors to HTTP status codes. Handlers are responsible for
 * parsing incoming requests, calling the appropriate methods on the
 * application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/app"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
)

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service *app.Service
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service) *Handlers {
	return &Handlers{service: service}
}

func normalizeParamEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps a failed operation to its HTTP status. Every
// handler funnels its service errors through here so the taxonomy stays in
// one place.
func (h *Handlers) writeDomainError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInsufficientFunds):
		h.writeError(w, http.StatusBadRequest, "Insufficient coin balance")
	case errors.Is(err, app.ErrRateLimited):
		var rl *app.RateLimitError
		if errors.As(err, &rl) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSeconds))
		}
		h.writeError(w, http.StatusTooManyRequests, "Too many submissions, slow down")
	case errors.Is(err, store.ErrInvalidState):
		h.writeError(w, http.StatusConflict, "Operation not allowed in the current state")
	case errors.Is(err, store.ErrTaskFull):
		h.writeError(w, http.StatusConflict, "Task has no remaining worker slots")
	case errors.Is(err, store.ErrDuplicateSubmission):
		h.writeError(w, http.StatusConflict, "An active submission for this task already exists")
	case errors.Is(err, store.ErrDuplicatePayment):
		h.writeError(w, http.StatusConflict, "This payment was already recorded")
	case errors.Is(err, store.ErrNotOwner):
		h.writeError(w, http.StatusForbidden, "Not the owner of this resource")
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrSubmissionNotFound),
		errors.Is(err, store.ErrWithdrawalNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		h.writeError(w, http.StatusNotFound, "Resource not found")
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// SignInHandler upserts the caller's account by the email in their token.
func (h *Handlers) SignInHandler(w http.ResponseWriter, r *http.Request) {
	email, ok := GetAuthEmail(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, created, err := h.service.SignIn(r.Context(), email, req)
	if err != nil {
		h.writeDomainError(w, "sign_in", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, user)
}

// GetUserHandler returns one account. Policy restricts it to the account
// owner or an admin.
func (h *Handlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	email := normalizeParamEmail(chi.URLParam(r, "email"))
	user, err := h.service.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "get_user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ListUsersHandler returns every account. Admin-only.
func (h *Handlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeDomainError(w, "list_users", err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// BestWorkersHandler returns the public worker leaderboard.
func (h *Handlers) BestWorkersHandler(w http.ResponseWriter, r *http.Request) {
	workers, err := h.service.BestWorkers(r.Context())
	if err != nil {
		h.writeDomainError(w, "best_workers", err)
		return
	}
	h.writeJSON(w, http.StatusOK, workers)
}

// GetUserRoleHandler returns just the account's role, for cheap frontend
// gate checks.
func (h *Handlers) GetUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	email := normalizeParamEmail(chi.URLParam(r, "email"))
	user, err := h.service.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "get_user_role", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"role": user.Role})
}

// UpdateUserRoleHandler sets an account's role. Admin-only.
func (h *Handlers) UpdateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdateUserRole(r.Context(), email, req.Role); err != nil {
		h.writeDomainError(w, "update_user_role", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteUserHandler removes an account by id. Admin-only.
func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeDomainError(w, "delete_user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AdminStatsHandler returns the platform counters. Admin-only.
func (h *Handlers) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		h.writeDomainError(w, "admin_stats", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
