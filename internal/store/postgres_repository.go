/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for user accounts and the two ledger primitives. Every debit is
 * a locked check-and-decrement inside a transaction, so an affordability
 * check can never be separated from the mutation it guards.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/worknest/worknest/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository
// interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, role, coins, created_at, last_login_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Coins, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpsertUserBySignIn creates the account on first sight or refreshes the
// last-login timestamp on a repeat sign-in. The boolean result reports
// whether the account was created by this call.
func (r *PostgresRepository) UpsertUserBySignIn(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	insert := `
		INSERT INTO users (id, email, name, role, coins, created_at, last_login_at)
		VALUES ($1, lower(btrim($2)), $3, $4, $5, NOW(), NOW())
		ON CONFLICT (email) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, insert, user.ID, user.Email, user.Name, user.Role, user.Coins)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 1 {
		created, err := r.FindUserByEmail(ctx, user.Email)
		return created, true, err
	}

	query := `
		UPDATE users SET last_login_at = NOW()
		WHERE email = lower(btrim($1))
		RETURNING ` + userColumns
	existing, err := scanUser(r.db.QueryRow(ctx, query, user.Email))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindUserByEmail retrieves a user account by its email key.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower(btrim($1))`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// ListUsers returns all accounts, newest first.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListTopWorkers returns the highest-earning worker accounts.
func (r *PostgresRepository) ListTopWorkers(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 6
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY coins DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, domain.RoleWorker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Coins, &u.CreatedAt, &u.LastLoginAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole changes an account's role.
func (r *PostgresRepository) UpdateUserRole(ctx context.Context, email, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE email = lower(btrim($2))`, role, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUserByID removes an account entirely. Admin-only; payment records
// referencing the account are kept as the audit trail.
func (r *PostgresRepository) DeleteUserByID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreditCoins unconditionally increases an account's balance. A zero amount
// skips the write so no spurious row version is produced.
func (r *PostgresRepository) CreditCoins(ctx context.Context, email string, amount int64) error {
	if amount == 0 {
		return nil
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET coins = coins + $1 WHERE email = lower(btrim($2))`, amount, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DebitCoins performs an atomic conditional debit: the affordability check
// and the decrement happen under one row lock.
func (r *PostgresRepository) DebitCoins(ctx context.Context, email string, amount int64) error {
	if amount == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := debitCoinsTx(ctx, tx, email, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// debitCoinsTx is the in-transaction debit used by every funded lifecycle
// operation. FOR UPDATE serializes concurrent debits against one account.
func debitCoinsTx(ctx context.Context, tx pgx.Tx, email string, amount int64) error {
	if amount == 0 {
		return nil
	}
	var coins int64
	err := tx.QueryRow(ctx,
		`SELECT coins FROM users WHERE email = lower(btrim($1)) FOR UPDATE`, email).Scan(&coins)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}
	if coins < amount {
		return ErrInsufficientFunds
	}
	_, err = tx.Exec(ctx,
		`UPDATE users SET coins = coins - $1 WHERE email = lower(btrim($2))`, amount, email)
	return err
}

// creditCoinsTx mirrors debitCoinsTx for in-transaction credits.
func creditCoinsTx(ctx context.Context, tx pgx.Tx, email string, amount int64) error {
	if amount == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx,
		`UPDATE users SET coins = coins + $1 WHERE email = lower(btrim($2))`, amount, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// insertNotificationTx persists the outbox fact inside the caller's
// transaction. A nil note is a no-op.
func insertNotificationTx(ctx context.Context, tx pgx.Tx, note *domain.Notification) error {
	if note == nil {
		return nil
	}
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO notifications (id, to_email, message, action_route, read, created_at)
		VALUES ($1, lower(btrim($2)), $3, $4, false, NOW())
	`, note.ID, note.ToEmail, note.Message, note.ActionRoute)
	return err
}

// insertPaymentTx appends one audit-trail payment row inside the caller's
// transaction.
func insertPaymentTx(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO payments (id, kind, from_email, to_email, coin_amount, cash_amount, intent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Kind, p.FromEmail, p.ToEmail, p.CoinAmount, p.CashAmount, p.IntentID, p.CreatedAt)
	return err
}
