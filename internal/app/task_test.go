package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
)

type taskRepoStub struct {
	store.Repository

	createdTask  *domain.Task
	updateParams *store.UpdateTaskParams
	updateErr    error
	deleteRefund int64
	deleteErr    error
	deleteOwner  string
}

func (s *taskRepoStub) CreateTask(ctx context.Context, task *domain.Task, note *domain.Notification) error {
	s.createdTask = task
	return nil
}

func (s *taskRepoStub) UpdateTask(ctx context.Context, params store.UpdateTaskParams) (*domain.Task, error) {
	s.updateParams = &params
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &domain.Task{ID: params.TaskID}, nil
}

func (s *taskRepoStub) DeleteTask(ctx context.Context, id uuid.UUID, buyerEmail string) (int64, error) {
	s.deleteOwner = buyerEmail
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	return s.deleteRefund, nil
}

func TestCreateTask_ComputesEscrowTotal(t *testing.T) {
	repo := &taskRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{})

	task, err := svc.CreateTask(context.Background(), "Buyer@Example.com", domain.CreateTaskRequest{
		Title:           "Label 100 images",
		Detail:          "Draw boxes around street signs",
		PayableAmount:   10,
		RequiredWorkers: 5,
	})
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}
	if task.TotalPayableAmount != 50 {
		t.Fatalf("expected escrow total 50, got %d", task.TotalPayableAmount)
	}
	if task.RemainingWorkers != 5 {
		t.Fatalf("expected remaining workers 5, got %d", task.RemainingWorkers)
	}
	if task.BuyerEmail != "buyer@example.com" {
		t.Fatalf("expected normalized buyer email, got %q", task.BuyerEmail)
	}
	if repo.createdTask == nil {
		t.Fatal("expected task to be persisted")
	}
}

func TestCreateTask_RejectsInvalidInput(t *testing.T) {
	svc := NewService(&taskRepoStub{}, nil, nil, nil, Options{})

	cases := []struct {
		name string
		req  domain.CreateTaskRequest
	}{
		{"empty title", domain.CreateTaskRequest{Detail: "d", PayableAmount: 1, RequiredWorkers: 1}},
		{"empty detail", domain.CreateTaskRequest{Title: "t", PayableAmount: 1, RequiredWorkers: 1}},
		{"zero price", domain.CreateTaskRequest{Title: "t", Detail: "d", RequiredWorkers: 1}},
		{"negative price", domain.CreateTaskRequest{Title: "t", Detail: "d", PayableAmount: -5, RequiredWorkers: 1}},
		{"zero workers", domain.CreateTaskRequest{Title: "t", Detail: "d", PayableAmount: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTask(context.Background(), "buyer@example.com", tc.req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateTask_PassesIntentToRepository(t *testing.T) {
	repo := &taskRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{})

	id := uuid.New()
	newTitle := "  Relabeled  "
	newPrice := int64(20)
	newRequired := 4
	_, err := svc.UpdateTask(context.Background(), " Buyer@Example.com ", id, domain.UpdateTaskRequest{
		Title:           &newTitle,
		PayableAmount:   &newPrice,
		RequiredWorkers: &newRequired,
	})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	p := repo.updateParams
	if p == nil {
		t.Fatal("expected the edit intent to reach the repository")
	}
	if p.TaskID != id || p.BuyerEmail != "buyer@example.com" {
		t.Fatalf("unexpected target: id=%s buyer=%q", p.TaskID, p.BuyerEmail)
	}
	if p.Title == nil || *p.Title != "Relabeled" {
		t.Fatalf("expected trimmed title pointer, got %v", p.Title)
	}
	if p.Detail != nil {
		t.Fatal("an omitted field must stay nil so the stored value is kept")
	}
	if p.PayableAmount == nil || *p.PayableAmount != 20 {
		t.Fatalf("unexpected price intent: %v", p.PayableAmount)
	}
	if p.RequiredWorkers == nil || *p.RequiredWorkers != 4 {
		t.Fatalf("unexpected required-workers intent: %v", p.RequiredWorkers)
	}
}

func TestUpdateTask_RejectsInvalidFields(t *testing.T) {
	repo := &taskRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{})

	blank := "   "
	zeroPrice := int64(0)
	negativeRequired := -1

	cases := []struct {
		name string
		req  domain.UpdateTaskRequest
	}{
		{"blank title", domain.UpdateTaskRequest{Title: &blank}},
		{"blank detail", domain.UpdateTaskRequest{Detail: &blank}},
		{"zero price", domain.UpdateTaskRequest{PayableAmount: &zeroPrice}},
		{"negative workers", domain.UpdateTaskRequest{RequiredWorkers: &negativeRequired}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateTask(context.Background(), "buyer@example.com", uuid.New(), tc.req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if repo.updateParams != nil {
				t.Fatal("did not expect the repository to be called after validation failure")
			}
		})
	}
}

func TestUpdateTask_SurfacesOwnershipAndStateErrors(t *testing.T) {
	for _, want := range []error{store.ErrNotOwner, store.ErrInvalidState, store.ErrInsufficientFunds, store.ErrTaskNotFound} {
		repo := &taskRepoStub{updateErr: want}
		svc := NewService(repo, nil, nil, nil, Options{})

		if _, err := svc.UpdateTask(context.Background(), "buyer@example.com", uuid.New(), domain.UpdateTaskRequest{}); !errors.Is(err, want) {
			t.Fatalf("expected %v to surface, got %v", want, err)
		}
	}
}

func TestDeleteTask_ReturnsRefund(t *testing.T) {
	repo := &taskRepoStub{deleteRefund: 40}
	svc := NewService(repo, nil, nil, nil, Options{})

	refund, err := svc.DeleteTask(context.Background(), "Buyer@Example.com", uuid.New())
	if err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if refund != 40 {
		t.Fatalf("expected refund 40, got %d", refund)
	}
	if repo.deleteOwner != "buyer@example.com" {
		t.Fatalf("expected normalized owner email, got %q", repo.deleteOwner)
	}
}

func TestDeleteTask_SurfacesMissingOwnerAccount(t *testing.T) {
	repo := &taskRepoStub{deleteErr: store.ErrUserNotFound}
	svc := NewService(repo, nil, nil, nil, Options{})

	if _, err := svc.DeleteTask(context.Background(), "buyer@example.com", uuid.New()); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
