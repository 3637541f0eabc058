package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
)

type withdrawalRepoStub struct {
	store.Repository

	created     *domain.Withdrawal
	approveNote *domain.Notification
	approveErr  error
}

func (s *withdrawalRepoStub) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	s.created = w
	return nil
}

func (s *withdrawalRepoStub) ApproveWithdrawal(ctx context.Context, id uuid.UUID, note *domain.Notification) (*domain.Withdrawal, error) {
	s.approveNote = note
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &domain.Withdrawal{ID: id, Status: domain.WithdrawalApproved}, nil
}

func TestCreateWithdrawal_RequiresEveryField(t *testing.T) {
	svc := NewService(&withdrawalRepoStub{}, nil, nil, nil, Options{})

	valid := domain.CreateWithdrawalRequest{
		CoinAmount:    20,
		CashAmount:    100,
		PaymentSystem: "bkash",
		AccountNumber: "017xxxxxxxx",
	}

	cases := []struct {
		name   string
		mutate func(r *domain.CreateWithdrawalRequest)
	}{
		{"zero coins", func(r *domain.CreateWithdrawalRequest) { r.CoinAmount = 0 }},
		{"negative coins", func(r *domain.CreateWithdrawalRequest) { r.CoinAmount = -1 }},
		{"zero cash", func(r *domain.CreateWithdrawalRequest) { r.CashAmount = 0 }},
		{"blank system", func(r *domain.CreateWithdrawalRequest) { r.PaymentSystem = "  " }},
		{"blank account", func(r *domain.CreateWithdrawalRequest) { r.AccountNumber = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			if _, err := svc.CreateWithdrawal(context.Background(), "worker@example.com", req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateWithdrawal_PersistsNormalizedRequest(t *testing.T) {
	repo := &withdrawalRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{})

	w, err := svc.CreateWithdrawal(context.Background(), " Worker@Example.com ", domain.CreateWithdrawalRequest{
		CoinAmount:    20,
		CashAmount:    100,
		PaymentSystem: " bkash ",
		AccountNumber: " 017xxxxxxxx ",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal returned error: %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected the request to be persisted")
	}
	if w.WorkerEmail != "worker@example.com" {
		t.Fatalf("expected normalized worker email, got %q", w.WorkerEmail)
	}
	if w.PaymentSystem != "bkash" || w.AccountNumber != "017xxxxxxxx" {
		t.Fatalf("expected trimmed payout coordinates, got %q / %q", w.PaymentSystem, w.AccountNumber)
	}
}

func TestApproveWithdrawal_SurfacesLedgerErrors(t *testing.T) {
	// ErrInsufficientFunds: the balance dropped since the request was
	// filed. ErrInvalidState: the request was already approved; a repeat
	// approval must not debit a second time.
	for _, want := range []error{store.ErrInsufficientFunds, store.ErrInvalidState} {
		repo := &withdrawalRepoStub{approveErr: want}
		svc := NewService(repo, nil, nil, nil, Options{})

		if _, err := svc.ApproveWithdrawal(context.Background(), uuid.New()); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestApproveWithdrawal_NotifiesWorker(t *testing.T) {
	repo := &withdrawalRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{})

	w, err := svc.ApproveWithdrawal(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ApproveWithdrawal returned error: %v", err)
	}
	if w.Status != domain.WithdrawalApproved {
		t.Fatalf("expected approved status, got %q", w.Status)
	}
	if repo.approveNote == nil {
		t.Fatal("expected a notification for the worker")
	}
	if repo.approveNote.ActionRoute != "/my-withdrawals" {
		t.Fatalf("unexpected action route %q", repo.approveNote.ActionRoute)
	}
}
