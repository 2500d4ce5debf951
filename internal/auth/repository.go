package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams carries a new registration.
type CreateParams struct {
	Email             string
	PasswordHash      string
	Name              string
	Role              string
	ReferralCode      string
	ReferrerAccountID *uuid.UUID
	WalletCurrency    string
}

// Create inserts the account, its wallet and the optional referral link in
// one transaction. Every account has a wallet from the moment it exists.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	acc := models.Account{
		ID:           uuid.New(),
		Email:        p.Email,
		Name:         p.Name,
		Role:         p.Role,
		ReferralCode: p.ReferralCode,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, name, role, referral_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, acc.ID, p.Email, p.PasswordHash, p.Name, p.Role, p.ReferralCode).Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO wallets (id, owner_account_id, balance, quote_credits, ad_credits, currency)
		VALUES ($1, $2, 0, 0, 0, $3)
	`, uuid.New(), acc.ID, p.WalletCurrency)
	if err != nil {
		return nil, err
	}

	if p.ReferrerAccountID != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO referrals (id, referrer_account_id, referred_account_id)
			VALUES ($1, $2, $3)
		`, uuid.New(), *p.ReferrerAccountID, acc.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetByEmail returns the account and password hash for login. Returns nil
// when the email is unknown.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Account, string, error) {
	var a models.Account
	var passwordHash string
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, referral_code, password_hash, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.ReferralCode, &passwordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &a, passwordHash, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, referral_code, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.ReferralCode, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAccountByReferralCode resolves a referral code to its owning account,
// or nil when no account carries the code.
func (r *Repository) FindAccountByReferralCode(ctx context.Context, code string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM accounts WHERE referral_code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
