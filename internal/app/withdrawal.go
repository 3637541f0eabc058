/**
 * @description
 * Withdrawal workflow use cases. A worker files a cash-out request with the
 * coin and cash amounts plus payout coordinates; an admin approval debits
 * the coins and appends the payout record atomically in the repository.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

// CreateWithdrawal records a pending cash-out request. Every field is
// required; the balance is not checked here because it is re-validated
// atomically at approval time, when the debit actually happens.
func (s *Service) CreateWithdrawal(ctx context.Context, workerEmail string, req domain.CreateWithdrawalRequest) (*domain.Withdrawal, error) {
	workerEmail = normalizeEmail(workerEmail)
	if req.CoinAmount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal_coin must be positive", ErrValidation)
	}
	if req.CashAmount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal_amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(req.PaymentSystem) == "" {
		return nil, fmt.Errorf("%w: payment_system is required", ErrValidation)
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return nil, fmt.Errorf("%w: account_number is required", ErrValidation)
	}

	w := &domain.Withdrawal{
		ID:            uuid.New(),
		WorkerEmail:   workerEmail,
		CoinAmount:    req.CoinAmount,
		CashAmount:    req.CashAmount,
		PaymentSystem: strings.TrimSpace(req.PaymentSystem),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
	}
	if err := s.repo.CreateWithdrawal(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return w, nil
}

// ListPendingWithdrawals returns the admin approval queue.
func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return s.repo.ListPendingWithdrawals(ctx)
}

// ListWithdrawalsForWorker returns the worker's own requests.
func (s *Service) ListWithdrawalsForWorker(ctx context.Context, workerEmail string) ([]domain.Withdrawal, error) {
	return s.repo.ListWithdrawalsByWorker(ctx, normalizeEmail(workerEmail))
}

// ApproveWithdrawal settles a pending request: the worker's coins are
// debited and the `get` payment record appended in one transaction. An
// insufficient balance fails ErrInsufficientFunds, a repeat approval
// ErrInvalidState; neither moves coins.
func (s *Service) ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	note := domain.NewNotification("",
		"Your withdrawal request was approved and is being paid out.",
		"/my-withdrawals")
	return s.repo.ApproveWithdrawal(ctx, id, note)
}
