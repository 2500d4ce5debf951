package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_account_id, balance, quote_credits, ad_credits, currency, created_at, updated_at`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.OwnerAccountID, &w.Balance, &w.QuoteCredits, &w.AdCredits, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateTx inserts a wallet inside the given transaction. Wallets are created
// together with their owning account.
func (r *WalletRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *models.Wallet) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallets (id, owner_account_id, balance, quote_credits, ad_credits, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, w.ID, w.OwnerAccountID, w.Balance, w.QuoteCredits, w.AdCredits, w.Currency).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return scanWallet(r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id))
}

func (r *WalletRepo) GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error) {
	return scanWallet(r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_account_id = $1`, ownerAccountID))
}

// GetByIDForUpdate locks the wallet row. Call within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Wallet, error) {
	return scanWallet(tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id))
}

// DebitBalance atomically deducts amount from the currency balance if it is
// sufficient. Returns pgx.ErrNoRows when the balance is too low, so two
// concurrent debits cannot both pass a stale sufficiency check.
func (r *WalletRepo) DebitBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE wallets SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// CreditBalance adds amount to the currency balance and returns the new balance.
func (r *WalletRepo) CreditBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE wallets SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// DebitCredits atomically deducts n units of the given credit kind
// (quote_credit or ad_credit) if the count is sufficient. Returns
// pgx.ErrNoRows when it is not.
func (r *WalletRepo) DebitCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, kind string, n int) (newCount int, err error) {
	col, err := creditColumn(kind)
	if err != nil {
		return 0, err
	}
	err = tx.QueryRow(ctx, `
		UPDATE wallets SET `+col+` = `+col+` - $1, updated_at = now()
		WHERE id = $2 AND `+col+` >= $1
		RETURNING `+col+`
	`, n, id).Scan(&newCount)
	return newCount, err
}

// CreditCredits adds n units of the given credit kind and returns the new count.
func (r *WalletRepo) CreditCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, kind string, n int) (newCount int, err error) {
	col, err := creditColumn(kind)
	if err != nil {
		return 0, err
	}
	err = tx.QueryRow(ctx, `
		UPDATE wallets SET `+col+` = `+col+` + $1, updated_at = now()
		WHERE id = $2
		RETURNING `+col+`
	`, n, id).Scan(&newCount)
	return newCount, err
}

func creditColumn(kind string) (string, error) {
	switch kind {
	case models.WalletKindQuoteCredit:
		return "quote_credits", nil
	case models.WalletKindAdCredit:
		return "ad_credits", nil
	default:
		return "", ErrUnknownWalletKind
	}
}
