package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
	"github.com/worknest/worknest/pkg/rabbitmq"
)

type notificationRepoStub struct {
	store.Repository

	pending    []domain.Notification
	dispatched []uuid.UUID
	markErr    error
}

func (s *notificationRepoStub) ListUndispatchedNotifications(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit < len(s.pending) {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *notificationRepoStub) MarkNotificationDispatched(ctx context.Context, id uuid.UUID) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.dispatched = append(s.dispatched, id)
	return nil
}

type publisherStub struct {
	failOn map[uuid.UUID]bool
	events []rabbitmq.NotificationEvent
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return nil
}

func (p *publisherStub) PublishNotificationEvent(ctx context.Context, exchange string, event rabbitmq.NotificationEvent) error {
	if p.failOn[event.ID] {
		return fmt.Errorf("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) Close() {}

func TestDispatchPendingNotifications_SkipsFailedPublish(t *testing.T) {
	first := *domain.NewNotification("a@example.com", "m1", "/r1")
	second := *domain.NewNotification("b@example.com", "m2", "/r2")
	third := *domain.NewNotification("c@example.com", "m3", "/r3")

	repo := &notificationRepoStub{pending: []domain.Notification{first, second, third}}
	pub := &publisherStub{failOn: map[uuid.UUID]bool{second.ID: true}}
	svc := NewService(repo, nil, pub, nil, Options{})

	n, err := svc.DispatchPendingNotifications(context.Background(), "worknest.events")
	if err != nil {
		t.Fatalf("DispatchPendingNotifications returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 dispatched, got %d", n)
	}
	if len(repo.dispatched) != 2 || repo.dispatched[0] != first.ID || repo.dispatched[1] != third.ID {
		t.Fatalf("expected rows 1 and 3 stamped dispatched, got %v", repo.dispatched)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.events))
	}
	if pub.events[0].ToEmail != "a@example.com" || pub.events[0].Message != "m1" {
		t.Fatalf("unexpected first event: %+v", pub.events[0])
	}
}

func TestDispatchPendingNotifications_StampFailureLeavesRowForRetry(t *testing.T) {
	note := *domain.NewNotification("a@example.com", "m1", "/r1")
	repo := &notificationRepoStub{
		pending: []domain.Notification{note},
		markErr: fmt.Errorf("db gone"),
	}
	pub := &publisherStub{}
	svc := NewService(repo, nil, pub, nil, Options{})

	n, err := svc.DispatchPendingNotifications(context.Background(), "worknest.events")
	if err != nil {
		t.Fatalf("DispatchPendingNotifications returned error: %v", err)
	}
	if n != 0 {
		t.Fatalf("an unstamped row must not count as dispatched, got %d", n)
	}
}

func TestDispatchPendingNotifications_EmptyQueue(t *testing.T) {
	repo := &notificationRepoStub{}
	pub := &publisherStub{}
	svc := NewService(repo, nil, pub, nil, Options{})

	n, err := svc.DispatchPendingNotifications(context.Background(), "worknest.events")
	if err != nil {
		t.Fatalf("DispatchPendingNotifications returned error: %v", err)
	}
	if n != 0 || len(pub.events) != 0 {
		t.Fatalf("expected no work on an empty queue, got n=%d events=%d", n, len(pub.events))
	}
}
