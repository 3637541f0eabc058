/**
 * @description
 * This file defines the withdrawal request model. A worker files a request
 * for a coin amount plus its cash equivalent; an admin approval debits the
 * worker and appends the payout record. `approved` is terminal.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
)

// Withdrawal maps to the `withdrawals` table.
type Withdrawal struct {
	ID            uuid.UUID  `json:"id"`
	WorkerEmail   string     `json:"worker_email"`
	CoinAmount    int64      `json:"withdrawal_coin"`
	CashAmount    int64      `json:"withdrawal_amount"` // minor currency units
	PaymentSystem string     `json:"payment_system"`
	AccountNumber string     `json:"account_number"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

// CreateWithdrawalRequest is the DTO for a worker's payout request. Every
// field is required.
type CreateWithdrawalRequest struct {
	CoinAmount    int64  `json:"withdrawal_coin"`
	CashAmount    int64  `json:"withdrawal_amount"`
	PaymentSystem string `json:"payment_system"`
	AccountNumber string `json:"account_number"`
}
