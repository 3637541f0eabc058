/**
 * @description
 * Submission persistence and the pending → approved/rejected state machine.
 * The approve path is the system's double-payout guard: the status check and
 * the worker credit share one transaction and one row lock, so two
 * concurrent approvals of the same submission can never both pay out.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/worknest/worknest/internal/domain"
)

const submissionColumns = `id, task_id, task_title, payable_amount, worker_email,
	buyer_email, detail, status, submitted_at, decided_at`

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var s domain.Submission
	err := row.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.PayableAmount, &s.WorkerEmail,
		&s.BuyerEmail, &s.Detail, &s.Status, &s.SubmittedAt, &s.DecidedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSubmission claims one worker slot on the task and records the
// pending submission. The slot decrement is a conditional update guarded by
// `remaining_workers > 0`, so concurrent submissions against a nearly-full
// task cannot oversubscribe it. No coins move here: the buyer already paid
// the full escrow at task creation.
func (r *PostgresRepository) CreateSubmission(ctx context.Context, sub *domain.Submission, allowResubmit bool, note *domain.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if !allowResubmit {
		var active bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM submissions
				WHERE task_id = $1 AND worker_email = lower(btrim($2)) AND status IN ($3, $4)
			)
		`, sub.TaskID, sub.WorkerEmail, domain.SubmissionPending, domain.SubmissionApproved).Scan(&active)
		if err != nil {
			return err
		}
		if active {
			return ErrDuplicateSubmission
		}
	}

	claim := `
		UPDATE tasks
		SET remaining_workers = remaining_workers - 1, updated_at = NOW()
		WHERE id = $1 AND remaining_workers > 0
		RETURNING title, payable_amount, buyer_email
	`
	err = tx.QueryRow(ctx, claim, sub.TaskID).Scan(&sub.TaskTitle, &sub.PayableAmount, &sub.BuyerEmail)
	if err != nil {
		if err == pgx.ErrNoRows {
			var exists bool
			if checkErr := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, sub.TaskID).Scan(&exists); checkErr != nil {
				return checkErr
			}
			if !exists {
				return ErrTaskNotFound
			}
			return ErrTaskFull
		}
		return err
	}

	sub.Status = domain.SubmissionPending
	query := `
		INSERT INTO submissions (id, task_id, task_title, payable_amount, worker_email,
			buyer_email, detail, status, submitted_at)
		VALUES ($1, $2, $3, $4, lower(btrim($5)), lower(btrim($6)), $7, $8, NOW())
		RETURNING submitted_at
	`
	err = tx.QueryRow(ctx, query,
		sub.ID, sub.TaskID, sub.TaskTitle, sub.PayableAmount, sub.WorkerEmail,
		sub.BuyerEmail, sub.Detail, sub.Status,
	).Scan(&sub.SubmittedAt)
	if err != nil {
		return err
	}

	if note != nil && note.ToEmail == "" {
		note.ToEmail = sub.BuyerEmail
	}
	if err := insertNotificationTx(ctx, tx, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindSubmissionByID retrieves one submission.
func (r *PostgresRepository) FindSubmissionByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return scanSubmission(r.db.QueryRow(ctx, query, id))
}

// ListSubmissions returns every submission, newest first.
func (r *PostgresRepository) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return r.listSubmissions(ctx, ``)
}

// ListSubmissionsByBuyer returns submissions against the buyer's tasks.
func (r *PostgresRepository) ListSubmissionsByBuyer(ctx context.Context, buyerEmail string) ([]domain.Submission, error) {
	return r.listSubmissions(ctx, `WHERE buyer_email = lower(btrim($1))`, buyerEmail)
}

// ListSubmissionsByWorker returns the worker's own submissions.
func (r *PostgresRepository) ListSubmissionsByWorker(ctx context.Context, workerEmail string) ([]domain.Submission, error) {
	return r.listSubmissions(ctx, `WHERE worker_email = lower(btrim($1))`, workerEmail)
}

func (r *PostgresRepository) listSubmissions(ctx context.Context, where string, args ...interface{}) ([]domain.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions %s ORDER BY submitted_at DESC`, submissionColumns, where)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.PayableAmount, &s.WorkerEmail,
			&s.BuyerEmail, &s.Detail, &s.Status, &s.SubmittedAt, &s.DecidedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ApproveSubmission transitions pending → approved, credits the worker by
// the task's per-worker amount and appends the `give` payment record, all in
// one transaction. A non-pending submission fails ErrInvalidState and moves
// no coins.
func (r *PostgresRepository) ApproveSubmission(ctx context.Context, id uuid.UUID, buyerEmail string, note *domain.Notification) (*domain.Submission, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sub, err := lockSubmission(ctx, tx, id, buyerEmail)
	if err != nil {
		return nil, err
	}

	if err := creditCoinsTx(ctx, tx, sub.WorkerEmail, sub.PayableAmount); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		Kind:       domain.PaymentGive,
		FromEmail:  sub.BuyerEmail,
		ToEmail:    sub.WorkerEmail,
		CoinAmount: sub.PayableAmount,
	}
	if err := insertPaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	updated, err := decideSubmission(ctx, tx, id, domain.SubmissionApproved)
	if err != nil {
		return nil, err
	}

	if note != nil && note.ToEmail == "" {
		note.ToEmail = sub.WorkerEmail
	}
	if err := insertNotificationTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// RejectSubmission transitions pending → rejected and returns the worker
// slot to the task pool. The buyer's coins stay escrowed in the task total;
// they were debited at creation, not per slot.
func (r *PostgresRepository) RejectSubmission(ctx context.Context, id uuid.UUID, buyerEmail string, note *domain.Notification) (*domain.Submission, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sub, err := lockSubmission(ctx, tx, id, buyerEmail)
	if err != nil {
		return nil, err
	}

	// Restore the slot. The task may have been deleted since the
	// submission was filed; the guard also keeps remaining ≤ required.
	_, err = tx.Exec(ctx, `
		UPDATE tasks
		SET remaining_workers = remaining_workers + 1, updated_at = NOW()
		WHERE id = $1 AND remaining_workers < required_workers
	`, sub.TaskID)
	if err != nil {
		return nil, err
	}

	updated, err := decideSubmission(ctx, tx, id, domain.SubmissionRejected)
	if err != nil {
		return nil, err
	}

	if note != nil && note.ToEmail == "" {
		note.ToEmail = sub.WorkerEmail
	}
	if err := insertNotificationTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// lockSubmission loads a submission FOR UPDATE and enforces ownership plus
// the pending precondition shared by both decisions.
func lockSubmission(ctx context.Context, tx pgx.Tx, id uuid.UUID, buyerEmail string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 FOR UPDATE`
	sub, err := scanSubmission(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if !ownedBy(sub.BuyerEmail, buyerEmail) {
		return nil, ErrNotOwner
	}
	if err := ensurePendingSubmission(sub.Status); err != nil {
		return nil, err
	}
	return sub, nil
}

func decideSubmission(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) (*domain.Submission, error) {
	query := `
		UPDATE submissions SET status = $2, decided_at = NOW()
		WHERE id = $1
		RETURNING ` + submissionColumns
	return scanSubmission(tx.QueryRow(ctx, query, id, status))
}
