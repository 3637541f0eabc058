/**
 * @description
 * This file defines the append-only payment record — the audit trail for
 * every coin movement that crosses an account boundary. Payment rows are
 * never mutated or deleted.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment kinds.
const (
	PaymentMade = "made" // buyer bought coins with cash through the gateway
	PaymentGive = "give" // buyer's escrow paid out to a worker on approval
	PaymentGet  = "get"  // worker cashed coins out via an approved withdrawal
)

// Payment maps to the `payments` table. FromEmail or ToEmail may be empty
// when the counterparty is the platform itself (purchases and cash-outs).
type Payment struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	FromEmail  string    `json:"from_email,omitempty"`
	ToEmail    string    `json:"to_email,omitempty"`
	CoinAmount int64     `json:"coin_amount"`
	CashAmount int64     `json:"cash_amount"` // minor currency units
	IntentID   *string   `json:"intent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentIntentRequest is the DTO for asking the external gateway for a new
// payment intent.
type PaymentIntentRequest struct {
	Amount int64 `json:"amount"` // minor currency units
}

// RecordPaymentRequest is the DTO for recording a completed coin purchase.
// The intent id doubles as the idempotency key: replaying a settled intent
// must not credit coins twice.
type RecordPaymentRequest struct {
	IntentID   string `json:"intent_id"`
	CoinAmount int64  `json:"coin_amount"`
	CashAmount int64  `json:"cash_amount"`
}
