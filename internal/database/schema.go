package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements are ordered so foreign key targets exist before their
// referrers.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			referral_code TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS businesses (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL UNIQUE REFERENCES accounts(id),
			name TEXT NOT NULL,
			category_ids UUID[] NOT NULL DEFAULT '{}',
			state_id UUID NOT NULL,
			city_id UUID,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			webhook_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
			id UUID PRIMARY KEY,
			owner_account_id UUID NOT NULL UNIQUE REFERENCES accounts(id),
			balance NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			quote_credits INTEGER NOT NULL DEFAULT 0 CHECK (quote_credits >= 0),
			ad_credits INTEGER NOT NULL DEFAULT 0 CHECK (ad_credits >= 0),
			currency TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_entries (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id),
			kind TEXT NOT NULL,
			delta NUMERIC(14,2) NOT NULL,
			balance_after NUMERIC(14,2) NOT NULL,
			reason TEXT NOT NULL,
			cause_type TEXT,
			cause_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_entries_wallet ON wallet_entries(wallet_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id),
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS quote_requests (
			id UUID PRIMARY KEY,
			customer_account_id UUID NOT NULL REFERENCES accounts(id),
			category_id UUID NOT NULL,
			state_id UUID NOT NULL,
			city_id UUID,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			budget_min NUMERIC(14,2),
			budget_max NUMERIC(14,2),
			status TEXT NOT NULL DEFAULT 'open',
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quote_requests_match ON quote_requests(status, category_id, state_id)`,
	`CREATE INDEX IF NOT EXISTS idx_quote_requests_expiry ON quote_requests(status, expires_at)`,
	`CREATE TABLE IF NOT EXISTS quote_responses (
			id UUID PRIMARY KEY,
			request_id UUID NOT NULL REFERENCES quote_requests(id),
			business_id UUID NOT NULL REFERENCES businesses(id),
			price NUMERIC(14,2) NOT NULL CHECK (price > 0),
			delivery_time TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'submitted',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (request_id, business_id)
	)`,
	`CREATE TABLE IF NOT EXISTS referrals (
			id UUID PRIMARY KEY,
			referrer_account_id UUID NOT NULL REFERENCES accounts(id),
			referred_account_id UUID NOT NULL UNIQUE REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id),
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			currency TEXT NOT NULL,
			purpose TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			reference TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS referral_commissions (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id),
			transaction_id UUID NOT NULL UNIQUE REFERENCES transactions(id),
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			business_id UUID NOT NULL REFERENCES businesses(id),
			plan TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			starts_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_expiry ON subscriptions(status, expires_at)`,
}

// EnsureSchema creates the application tables if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, query := range schemaStatements {
		if _, err := pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}
