/**
 * @description
 * This file defines the user account model and role constants for WorkNest.
 * A user is identified by email; the coin balance is the contended ledger
 * field that every marketplace operation ultimately mutates.
 *
 * @notes
 * - Coin amounts are `int64` everywhere; coins are indivisible units so no
 *   floating point is ever involved in ledger math.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold. Every protected route declares the subset
// it accepts.
const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleWorker = "worker"
)

// ValidRole reports whether role is one of the three known account roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleBuyer || role == RoleWorker
}

// User represents a marketplace account. It maps directly to the `users`
// table.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Coins       int64     `json:"coins"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// SignInRequest is the DTO for the upsert-by-email sign-in endpoint. The
// email itself comes from the verified bearer token, never from the body.
type SignInRequest struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"` // honored on first sign-in only; buyer or worker
}

// AdminStats is the aggregate snapshot served to the admin dashboard.
type AdminStats struct {
	TotalUsers         int64 `json:"total_users"`
	TotalBuyers        int64 `json:"total_buyers"`
	TotalWorkers       int64 `json:"total_workers"`
	TotalTasks         int64 `json:"total_tasks"`
	TotalSubmissions   int64 `json:"total_submissions"`
	PendingSubmissions int64 `json:"pending_submissions"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	TotalCoins         int64 `json:"total_coins"`
	EscrowedCoins      int64 `json:"escrowed_coins"`
	TotalPayments      int64 `json:"total_payments"`
	TotalPaymentCash   int64 `json:"total_payment_cash"`
}
