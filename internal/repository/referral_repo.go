package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type ReferralRepo struct {
	pool *pgxpool.Pool
}

func NewReferralRepo(pool *pgxpool.Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

// GetByReferred returns the referral record for the given referred account,
// or nil when the account was not referred. The row itself is written by the
// registration transaction; the unique referred_account_id constraint
// enforces at most one referral per account.
func (r *ReferralRepo) GetByReferred(ctx context.Context, referredAccountID uuid.UUID) (*models.Referral, error) {
	var ref models.Referral
	err := r.pool.QueryRow(ctx, `
		SELECT id, referrer_account_id, referred_account_id, created_at
		FROM referrals WHERE referred_account_id = $1
	`, referredAccountID).Scan(&ref.ID, &ref.ReferrerAccountID, &ref.ReferredAccountID, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// GetCommissionByTransaction returns the commission settled for the given
// transaction, or nil when none exists yet.
func (r *ReferralRepo) GetCommissionByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.ReferralCommission, error) {
	var c models.ReferralCommission
	err := r.pool.QueryRow(ctx, `
		SELECT id, wallet_id, transaction_id, amount, created_at
		FROM referral_commissions WHERE transaction_id = $1
	`, transactionID).Scan(&c.ID, &c.WalletID, &c.TransactionID, &c.Amount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCommissionTx inserts a commission record inside the given
// transaction. The unique transaction_id constraint makes settlement
// idempotent; callers map code 23505 accordingly.
func (r *ReferralRepo) CreateCommissionTx(ctx context.Context, tx pgx.Tx, c *models.ReferralCommission) error {
	return tx.QueryRow(ctx, `
		INSERT INTO referral_commissions (id, wallet_id, transaction_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.WalletID, c.TransactionID, c.Amount).Scan(&c.CreatedAt)
}
