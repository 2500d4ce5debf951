package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func (r *WithdrawalRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *models.WithdrawalRequest) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (id, wallet_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, w.ID, w.WalletID, w.Amount, w.Status).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *WithdrawalRepo) ListByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_id, amount, status, created_at, updated_at
		FROM withdrawal_requests WHERE wallet_id = $1
		ORDER BY created_at DESC
	`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.WithdrawalRequest
	for rows.Next() {
		var w models.WithdrawalRequest
		if err := rows.Scan(&w.ID, &w.WalletID, &w.Amount, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}
