/**
 * @description
 * Withdrawal persistence plus the coin-purchase and payment-history queries.
 * Approving a withdrawal debits the worker under the same row lock that
 * verifies the pending status, so a request can never be cashed out twice.
 * Coin purchases are made idempotent by the gateway intent id.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/worknest/worknest/internal/domain"
)

const withdrawalColumns = `id, worker_email, coin_amount, cash_amount,
	payment_system, account_number, status, requested_at, decided_at`

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := row.Scan(&w.ID, &w.WorkerEmail, &w.CoinAmount, &w.CashAmount,
		&w.PaymentSystem, &w.AccountNumber, &w.Status, &w.RequestedAt, &w.DecidedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

// CreateWithdrawal records a pending cash-out request. Coins stay on the
// worker's balance until an admin approves; the balance check happens at
// approval time where the debit is atomic.
func (r *PostgresRepository) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	w.Status = domain.WithdrawalPending
	query := `
		INSERT INTO withdrawals (id, worker_email, coin_amount, cash_amount,
			payment_system, account_number, status, requested_at)
		VALUES ($1, lower(btrim($2)), $3, $4, $5, $6, $7, NOW())
		RETURNING requested_at
	`
	return r.db.QueryRow(ctx, query,
		w.ID, w.WorkerEmail, w.CoinAmount, w.CashAmount,
		w.PaymentSystem, w.AccountNumber, w.Status,
	).Scan(&w.RequestedAt)
}

// ListPendingWithdrawals returns requests awaiting an admin decision,
// oldest first so the queue drains in order.
func (r *PostgresRepository) ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return r.listWithdrawals(ctx, `WHERE status = $1 ORDER BY requested_at ASC`, domain.WithdrawalPending)
}

// ListWithdrawalsByWorker returns the worker's own requests, newest first.
func (r *PostgresRepository) ListWithdrawalsByWorker(ctx context.Context, workerEmail string) ([]domain.Withdrawal, error) {
	return r.listWithdrawals(ctx, `WHERE worker_email = lower(btrim($1)) ORDER BY requested_at DESC`, workerEmail)
}

func (r *PostgresRepository) listWithdrawals(ctx context.Context, tail string, args ...interface{}) ([]domain.Withdrawal, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawals %s`, withdrawalColumns, tail)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(&w.ID, &w.WorkerEmail, &w.CoinAmount, &w.CashAmount,
			&w.PaymentSystem, &w.AccountNumber, &w.Status, &w.RequestedAt, &w.DecidedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// ApproveWithdrawal transitions pending → approved and debits the worker's
// coins in the same transaction. An insufficient balance aborts the whole
// operation; the request stays pending.
func (r *PostgresRepository) ApproveWithdrawal(ctx context.Context, id uuid.UUID, note *domain.Notification) (*domain.Withdrawal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1 FOR UPDATE`
	w, err := scanWithdrawal(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := ensurePendingWithdrawal(w.Status); err != nil {
		return nil, err
	}

	if err := debitCoinsTx(ctx, tx, w.WorkerEmail, w.CoinAmount); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		Kind:       domain.PaymentGet,
		FromEmail:  w.WorkerEmail,
		CoinAmount: w.CoinAmount,
		CashAmount: w.CashAmount,
	}
	if err := insertPaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	updated, err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2, decided_at = NOW()
		WHERE id = $1
		RETURNING `+withdrawalColumns, id, domain.WithdrawalApproved))
	if err != nil {
		return nil, err
	}

	if note != nil && note.ToEmail == "" {
		note.ToEmail = w.WorkerEmail
	}
	if err := insertNotificationTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordCoinPurchase credits the buyer for a completed gateway payment. The
// intent id carries a unique index; a replayed confirmation inserts nothing
// and the credit is skipped, so a webhook retry can never double-credit.
func (r *PostgresRepository) RecordCoinPurchase(ctx context.Context, p *domain.Payment, note *domain.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO payments (id, kind, from_email, to_email, coin_amount, cash_amount, intent_id, created_at)
		VALUES ($1, $2, lower(btrim($3)), lower(btrim($4)), $5, $6, $7, NOW())
		ON CONFLICT (intent_id) DO NOTHING
	`, p.ID, p.Kind, p.FromEmail, p.ToEmail, p.CoinAmount, p.CashAmount, p.IntentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicatePayment
	}

	if err := creditCoinsTx(ctx, tx, p.ToEmail, p.CoinAmount); err != nil {
		return err
	}
	if err := insertNotificationTx(ctx, tx, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListPaymentsByEmail returns payment rows touching the given account on
// either side, newest first.
func (r *PostgresRepository) ListPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	query := `
		SELECT id, kind, from_email, to_email, coin_amount, cash_amount, intent_id, created_at
		FROM payments
		WHERE from_email = lower(btrim($1)) OR to_email = lower(btrim($1))
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.Kind, &p.FromEmail, &p.ToEmail,
			&p.CoinAmount, &p.CashAmount, &p.IntentID, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
