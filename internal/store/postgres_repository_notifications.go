/**
 * @description
 * Notification queries plus the admin stats rollup. Notification rows are
 * written transactionally alongside the state changes that produce them
 * (see insertNotificationTx); the methods here cover the read side and the
 * dispatch bookkeeping used by the background publisher.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

const notificationColumns = `id, to_email, message, action_route, read, created_at, dispatched_at`

// CreateNotification persists a standalone notification outside any larger
// transaction, e.g. the welcome message on first sign-in.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	query := `
		INSERT INTO notifications (id, to_email, message, action_route, read, created_at)
		VALUES ($1, lower(btrim($2)), $3, $4, FALSE, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, n.ID, n.ToEmail, n.Message, n.ActionRoute).Scan(&n.CreatedAt)
}

// ListNotifications returns the account's notifications, newest first.
func (r *PostgresRepository) ListNotifications(ctx context.Context, toEmail string) ([]domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE to_email = lower(btrim($1))
		ORDER BY created_at DESC
	`
	return r.collectNotifications(ctx, query, toEmail)
}

// MarkNotificationRead flags one notification as read. The owner filter
// keeps one account from touching another's notifications.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID, toEmail string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND to_email = lower(btrim($2))
	`, id, toEmail)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ListUndispatchedNotifications returns rows the background publisher has
// not yet pushed to the broker, oldest first.
func (r *PostgresRepository) ListUndispatchedNotifications(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE dispatched_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	return r.collectNotifications(ctx, query, limit)
}

// MarkNotificationDispatched stamps the row after a successful publish.
func (r *PostgresRepository) MarkNotificationDispatched(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET dispatched_at = NOW()
		WHERE id = $1 AND dispatched_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresRepository) collectNotifications(ctx context.Context, query string, args ...interface{}) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.ToEmail, &n.Message, &n.ActionRoute,
			&n.Read, &n.CreatedAt, &n.DispatchedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// CollectAdminStats aggregates the platform counters shown on the admin
// dashboard in a single round trip.
func (r *PostgresRepository) CollectAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = $1),
			(SELECT COUNT(*) FROM users WHERE role = $2),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM submissions),
			(SELECT COUNT(*) FROM submissions WHERE status = $3),
			(SELECT COUNT(*) FROM withdrawals WHERE status = $4),
			(SELECT COALESCE(SUM(coins), 0) FROM users),
			(SELECT COALESCE(SUM(payable_amount * remaining_workers), 0) FROM tasks),
			(SELECT COUNT(*) FROM payments),
			(SELECT COALESCE(SUM(cash_amount), 0) FROM payments)
	`
	var stats domain.AdminStats
	err := r.db.QueryRow(ctx, query,
		domain.RoleBuyer, domain.RoleWorker,
		domain.SubmissionPending, domain.WithdrawalPending,
	).Scan(
		&stats.TotalUsers, &stats.TotalBuyers, &stats.TotalWorkers,
		&stats.TotalTasks, &stats.TotalSubmissions, &stats.PendingSubmissions,
		&stats.PendingWithdrawals, &stats.TotalCoins, &stats.EscrowedCoins,
		&stats.TotalPayments, &stats.TotalPaymentCash,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
