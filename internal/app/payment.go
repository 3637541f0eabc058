/**
 * @description
 * Coin purchase use cases at the payment gateway boundary. An intent is
 * created against the gateway first; once the client completes the charge,
 * the confirmation is recorded and the buyer credited. The gateway intent
 * id doubles as the idempotency key so a replayed confirmation can never
 * credit twice.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/pkg/payments"
)

// CreatePaymentIntent opens a charge with the gateway for the given amount
// in minor currency units and returns the client secret the frontend needs
// to complete it.
func (s *Service) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*payments.Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("payment gateway is not configured")
	}
	intent, err := s.gateway.CreateIntent(ctx, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent, nil
}

// RecordPayment records a completed coin purchase and credits the buyer.
// The `made` payment record and the credit share a transaction keyed on
// the intent id; a duplicate confirmation fails ErrDuplicatePayment.
func (s *Service) RecordPayment(ctx context.Context, buyerEmail string, req domain.RecordPaymentRequest) (*domain.Payment, error) {
	buyerEmail = normalizeEmail(buyerEmail)
	intentID := strings.TrimSpace(req.IntentID)
	if intentID == "" {
		return nil, fmt.Errorf("%w: intent_id is required", ErrValidation)
	}
	if req.CoinAmount <= 0 {
		return nil, fmt.Errorf("%w: coin_amount must be positive", ErrValidation)
	}
	if req.CashAmount <= 0 {
		return nil, fmt.Errorf("%w: cash_amount must be positive", ErrValidation)
	}

	payment := &domain.Payment{
		ID:         uuid.New(),
		Kind:       domain.PaymentMade,
		FromEmail:  buyerEmail,
		ToEmail:    buyerEmail,
		CoinAmount: req.CoinAmount,
		CashAmount: req.CashAmount,
		IntentID:   &intentID,
	}

	note := domain.NewNotification(buyerEmail,
		fmt.Sprintf("Your purchase of %d coins is complete.", req.CoinAmount),
		"/payment-history")

	if err := s.repo.RecordCoinPurchase(ctx, payment, note); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments returns the payment history touching one account.
func (s *Service) ListPayments(ctx context.Context, email string) ([]domain.Payment, error) {
	return s.repo.ListPaymentsByEmail(ctx, normalizeEmail(email))
}
