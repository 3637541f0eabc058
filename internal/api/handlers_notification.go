/**
 * @description
 * HTTP handlers for the notification read paths. Creation happens inside
 * the lifecycle operations; dispatch to the broker is the background
 * sweeper's job.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListNotificationsHandler returns the caller's notifications. The
// ?toEmail= parameter is policy-checked against the caller's own email.
func (h *Handlers) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	email := normalizeParamEmail(r.URL.Query().Get("toEmail"))
	if email == "" {
		email = user.Email
	}

	notes, err := h.service.ListNotifications(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "list_notifications", err)
		return
	}
	h.writeJSON(w, http.StatusOK, notes)
}

// ReadNotificationHandler acknowledges one of the caller's notifications.
func (h *Handlers) ReadNotificationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), id, user.Email); err != nil {
		h.writeDomainError(w, "read_notification", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
