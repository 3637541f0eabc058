/**
 * @description
 * This file defines the notification model. Notifications are written
 * durably inside the same transaction as the lifecycle mutation that caused
 * them (the outbox fact); a background dispatcher later pushes undispatched
 * rows to the real-time transport and stamps `dispatched_at`.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification maps to the `notifications` table.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	ToEmail      string     `json:"to_email"`
	Message      string     `json:"message"`
	ActionRoute  string     `json:"action_route"`
	Read         bool       `json:"read"`
	CreatedAt    time.Time  `json:"created_at"`
	DispatchedAt *time.Time `json:"-"`
}

// NewNotification builds an undispatched, unread notification for recipient.
func NewNotification(toEmail, message, actionRoute string) *Notification {
	return &Notification{
		ID:          uuid.New(),
		ToEmail:     toEmail,
		Message:     message,
		ActionRoute: actionRoute,
	}
}
