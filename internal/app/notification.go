/**
 * @description
 * Notification read paths plus the background dispatcher. Notification rows
 * are written durably alongside the lifecycle event that produced them; the
 * dispatcher sweeps undispatched rows and pushes them to the broker, so a
 * broker outage can delay delivery but never fail or roll back the
 * originating operation.
 */

package app

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/pkg/rabbitmq"
)

// dispatchBatchSize bounds one dispatcher sweep.
const dispatchBatchSize = 100

// ListNotifications returns the account's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, toEmail string) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, normalizeEmail(toEmail))
}

// MarkNotificationRead acknowledges one notification for its owner.
func (s *Service) MarkNotificationRead(ctx context.Context, id uuid.UUID, toEmail string) error {
	return s.repo.MarkNotificationRead(ctx, id, normalizeEmail(toEmail))
}

// DispatchPendingNotifications pushes undispatched notification rows to the
// broker. A failed publish leaves the row in place for the next sweep; a
// published row is stamped so it is never pushed twice. Returns the number
// of rows successfully dispatched.
func (s *Service) DispatchPendingNotifications(ctx context.Context, exchange string) (int, error) {
	pending, err := s.repo.ListUndispatchedNotifications(ctx, dispatchBatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	dispatched := 0
	for _, n := range pending {
		event := rabbitmq.NotificationEvent{
			ID:          n.ID,
			ToEmail:     n.ToEmail,
			Message:     n.Message,
			ActionRoute: n.ActionRoute,
			CreatedAt:   n.CreatedAt,
		}
		if err := s.eventProducer.PublishNotificationEvent(ctx, exchange, event); err != nil {
			log.Printf("level=warn component=app msg=\"notification publish failed\" notification_id=%s error=%v", n.ID, err)
			continue
		}
		if err := s.repo.MarkNotificationDispatched(ctx, n.ID); err != nil {
			// Re-delivery on the next sweep is acceptable; losing the row
			// is not.
			log.Printf("level=warn component=app msg=\"failed to mark notification dispatched\" notification_id=%s error=%v", n.ID, err)
			continue
		}
		dispatched++
	}
	return dispatched, nil
}
