package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, account_id, amount, currency, purpose, quantity, status, reference, created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Currency, &t.Purpose, &t.Quantity, &t.Status, &t.Reference, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, account_id, amount, currency, purpose, quantity, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, t.ID, t.AccountID, t.Amount, t.Currency, t.Purpose, t.Quantity, t.Status, t.Reference).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// MarkCompletedTx flips a pending transaction to completed inside the given
// transaction. Returns false when the row was not pending, so a confirmation
// delivered twice applies its effects once.
func (r *TransactionRepo) MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reference string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE transactions SET status = $2, reference = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`, id, models.TransactionCompleted, reference, models.TransactionPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
