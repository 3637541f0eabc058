/**
 * @description
 * This file defines the `Repository` interface — the storage boundary for
 * every WorkNest entity — together with the sentinel errors the rest of the
 * service matches with `errors.Is`. Lifecycle operations that couple a
 * ledger mutation to a state transition are exposed as single repository
 * methods so the implementation can commit them atomically.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/google/uuid: Entity identifiers.
 * - internal/domain: The entity models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidState         = errors.New("invalid state transition")
	ErrTaskFull             = errors.New("task has no remaining worker slots")
	ErrNotOwner             = errors.New("caller does not own this resource")
	ErrDuplicateSubmission  = errors.New("worker already has an active submission for this task")
	ErrDuplicatePayment     = errors.New("payment intent already recorded")
)

// UpdateTaskParams carries a buyer's edit intent. Nil fields keep the
// stored value. The repository derives the new counts, escrow total, and
// coin delta from the locked row itself, so a concurrent edit or slot claim
// can never be reconciled against a stale read. An empty BuyerEmail is the
// admin override and skips the ownership check.
type UpdateTaskParams struct {
	TaskID          uuid.UUID
	BuyerEmail      string
	Title           *string
	Detail          *string
	PayableAmount   *int64
	RequiredWorkers *int
}

// Repository is the storage contract for the marketplace. A note argument,
// when non-nil, is persisted in the same transaction as the primary
// mutation — the durable outbox fact for the notification dispatcher.
type Repository interface {
	// Users and ledger primitives.
	UpsertUserBySignIn(ctx context.Context, user *domain.User) (*domain.User, bool, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListTopWorkers(ctx context.Context, limit int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, email, role string) error
	DeleteUserByID(ctx context.Context, id uuid.UUID) error
	CreditCoins(ctx context.Context, email string, amount int64) error
	DebitCoins(ctx context.Context, email string, amount int64) error

	// Tasks.
	CreateTask(ctx context.Context, task *domain.Task, note *domain.Notification) error
	FindTaskByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, buyerEmail string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID, buyerEmail string) (int64, error)

	// Submissions.
	CreateSubmission(ctx context.Context, sub *domain.Submission, allowResubmit bool, note *domain.Notification) error
	FindSubmissionByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
	ListSubmissions(ctx context.Context) ([]domain.Submission, error)
	ListSubmissionsByBuyer(ctx context.Context, buyerEmail string) ([]domain.Submission, error)
	ListSubmissionsByWorker(ctx context.Context, workerEmail string) ([]domain.Submission, error)
	ApproveSubmission(ctx context.Context, id uuid.UUID, buyerEmail string, note *domain.Notification) (*domain.Submission, error)
	RejectSubmission(ctx context.Context, id uuid.UUID, buyerEmail string, note *domain.Notification) (*domain.Submission, error)

	// Withdrawals.
	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)
	ListWithdrawalsByWorker(ctx context.Context, workerEmail string) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id uuid.UUID, note *domain.Notification) (*domain.Withdrawal, error)

	// Payments.
	RecordCoinPurchase(ctx context.Context, p *domain.Payment, note *domain.Notification) error
	ListPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error)

	// Notifications.
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, toEmail string) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, toEmail string) error
	ListUndispatchedNotifications(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkNotificationDispatched(ctx context.Context, id uuid.UUID) error

	// Admin.
	CollectAdminStats(ctx context.Context) (*domain.AdminStats, error)
}
