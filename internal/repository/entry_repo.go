package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

// ErrUnknownWalletKind is returned for a balance kind the wallet does not carry.
var ErrUnknownWalletKind = errors.New("unknown wallet balance kind")

// EntryRepo persists the append-only wallet ledger. Entries are never
// updated or deleted.
type EntryRepo struct {
	pool *pgxpool.Pool
}

func NewEntryRepo(pool *pgxpool.Pool) *EntryRepo {
	return &EntryRepo{pool: pool}
}

// CreateTx appends a ledger entry inside the given transaction.
func (r *EntryRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.WalletEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallet_entries (id, wallet_id, kind, delta, balance_after, reason, cause_type, cause_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, e.ID, e.WalletID, e.Kind, e.Delta, e.BalanceAfter, e.Reason, e.CauseType, e.CauseID).Scan(&e.CreatedAt)
}

func (r *EntryRepo) ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.WalletEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_id, kind, delta, balance_after, reason, cause_type, cause_id, created_at
		FROM wallet_entries WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.WalletEntry
	for rows.Next() {
		var e models.WalletEntry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Kind, &e.Delta, &e.BalanceAfter, &e.Reason, &e.CauseType, &e.CauseID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
