/**
 * @description
 * HTTP handlers for the task lifecycle endpoints. Ownership is enforced in
 * the service/repository layers; the admin override for edit and delete is
 * expressed by passing an empty owner email.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

// CreateTaskHandler escrows the buyer's coins and publishes a task.
func (h *Handlers) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.CreateTask(r.Context(), user.Email, req)
	if err != nil {
		h.writeDomainError(w, "create_task", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, task)
}

// GetTaskHandler returns one task.
func (h *Handlers) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "get_task", err)
		return
	}
	h.writeJSON(w, http.StatusOK, task)
}

// ListTasksHandler returns tasks, optionally filtered with ?buyer=email.
func (h *Handlers) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context(), r.URL.Query().Get("buyer"))
	if err != nil {
		h.writeDomainError(w, "list_tasks", err)
		return
	}
	h.writeJSON(w, http.StatusOK, tasks)
}

// UpdateTaskHandler applies a buyer's edit, settling the escrow delta.
func (h *Handlers) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	var req domain.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	owner := user.Email
	if user.Role == domain.RoleAdmin {
		owner = ""
	}

	task, err := h.service.UpdateTask(r.Context(), owner, id, req)
	if err != nil {
		h.writeDomainError(w, "update_task", err)
		return
	}
	h.writeJSON(w, http.StatusOK, task)
}

// DeleteTaskHandler removes a task and refunds the unconsumed escrow.
func (h *Handlers) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	owner := user.Email
	if user.Role == domain.RoleAdmin {
		owner = ""
	}

	refund, err := h.service.DeleteTask(r.Context(), owner, id)
	if err != nil {
		h.writeDomainError(w, "delete_task", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"refunded_coins": refund,
	})
}
