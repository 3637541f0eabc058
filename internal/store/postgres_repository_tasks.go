/**
 * @description
 * Task persistence. Creation debits the buyer's escrow and inserts the task
 * in one transaction; edits apply the re-derived coin delta and the new
 * worker counts atomically; deletion refunds exactly the unconsumed
 * capacity. The buyer is never charged or refunded outside the same
 * transaction that moves the task row.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/worknest/worknest/internal/domain"
)

const taskColumns = `id, title, detail, buyer_email, payable_amount, required_workers,
	remaining_workers, total_payable_amount, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.Title, &t.Detail, &t.BuyerEmail, &t.PayableAmount,
		&t.RequiredWorkers, &t.RemainingWorkers, &t.TotalPayableAmount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateTask debits the buyer by the task's total payable amount and stores
// the task with full remaining capacity, atomically.
func (r *PostgresRepository) CreateTask(ctx context.Context, task *domain.Task, note *domain.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := debitCoinsTx(ctx, tx, task.BuyerEmail, task.TotalPayableAmount); err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, title, detail, buyer_email, payable_amount, required_workers,
			remaining_workers, total_payable_amount, created_at, updated_at)
		VALUES ($1, $2, $3, lower(btrim($4)), $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		task.ID, task.Title, task.Detail, task.BuyerEmail, task.PayableAmount,
		task.RequiredWorkers, task.RemainingWorkers, task.TotalPayableAmount,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertNotificationTx(ctx, tx, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindTaskByID retrieves one task.
func (r *PostgresRepository) FindTaskByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

// ListTasks returns all tasks, optionally filtered by the owning buyer.
func (r *PostgresRepository) ListTasks(ctx context.Context, buyerEmail string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []interface{}{}
	if buyerEmail != "" {
		query += ` WHERE buyer_email = lower(btrim($1))`
		args = append(args, buyerEmail)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Detail, &t.BuyerEmail, &t.PayableAmount,
			&t.RequiredWorkers, &t.RemainingWorkers, &t.TotalPayableAmount, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies an edit intent. The current counts and total are read
// from the row under FOR UPDATE and the new values plus the coin delta are
// derived from that locked state, so two concurrent edits reconcile against
// each other's committed totals and a concurrent slot claim is never
// overwritten by a stale remaining count. A positive delta re-runs the
// affordability check against the owner's current balance; a negative delta
// refunds the difference.
func (r *PostgresRepository) UpdateTask(ctx context.Context, params UpdateTaskParams) (*domain.Task, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var owner string
	var cur taskEditState
	err = tx.QueryRow(ctx, `
		SELECT buyer_email, title, detail, payable_amount, required_workers,
			remaining_workers, total_payable_amount
		FROM tasks WHERE id = $1 FOR UPDATE`, params.TaskID,
	).Scan(&owner, &cur.Title, &cur.Detail, &cur.PayableAmount,
		&cur.RequiredWorkers, &cur.RemainingWorkers, &cur.TotalPayableAmount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if !ownedBy(owner, params.BuyerEmail) {
		return nil, ErrNotOwner
	}

	next, delta, err := applyTaskEdit(cur, params)
	if err != nil {
		return nil, err
	}

	// The delta targets the locked row's owner, not the caller: an admin
	// edit still settles against the buyer's balance.
	if delta > 0 {
		if err := debitCoinsTx(ctx, tx, owner, delta); err != nil {
			return nil, err
		}
	} else if delta < 0 {
		if err := creditCoinsTx(ctx, tx, owner, -delta); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE tasks SET
			title = $2,
			detail = $3,
			payable_amount = $4,
			required_workers = $5,
			remaining_workers = $6,
			total_payable_amount = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + taskColumns
	updated, err := scanTask(tx.QueryRow(ctx, query,
		params.TaskID, next.Title, next.Detail, next.PayableAmount,
		next.RequiredWorkers, next.RemainingWorkers, next.TotalPayableAmount))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes the task and refunds the buyer for unconsumed capacity
// only: payable_amount × remaining_workers. Returns the refunded amount.
func (r *PostgresRepository) DeleteTask(ctx context.Context, id uuid.UUID, buyerEmail string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var owner string
	var payable int64
	var remaining int
	err = tx.QueryRow(ctx,
		`SELECT buyer_email, payable_amount, remaining_workers FROM tasks WHERE id = $1 FOR UPDATE`, id,
	).Scan(&owner, &payable, &remaining)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrTaskNotFound
		}
		return 0, err
	}
	if !ownedBy(owner, buyerEmail) {
		return 0, ErrNotOwner
	}

	refund := taskDeleteRefund(payable, remaining)
	if err := creditCoinsTx(ctx, tx, owner, refund); err != nil {
		return 0, err
	}
	if refund == 0 {
		// creditCoinsTx skips a zero write, so a fully-consumed task needs
		// its owner row checked explicitly.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = lower(btrim($1)))`, owner,
		).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrUserNotFound
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return refund, nil
}
