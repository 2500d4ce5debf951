package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

func (r *SubscriptionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Subscription) error {
	return tx.QueryRow(ctx, `
		INSERT INTO subscriptions (id, business_id, plan, status, starts_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.BusinessID, s.Plan, s.Status, s.StartsAt, s.ExpiresAt).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetActiveByBusiness returns the business's active subscription, or nil.
func (r *SubscriptionRepo) GetActiveByBusiness(ctx context.Context, businessID uuid.UUID) (*models.Subscription, error) {
	var s models.Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, plan, status, starts_at, expires_at, created_at, updated_at
		FROM subscriptions
		WHERE business_id = $1 AND status = $2
		ORDER BY expires_at DESC
		LIMIT 1
	`, businessID, models.SubscriptionActive).Scan(&s.ID, &s.BusinessID, &s.Plan, &s.Status, &s.StartsAt, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ExpireDue flips every active subscription past its expiry to expired and
// returns the affected ids. Idempotent by predicate.
func (r *SubscriptionRepo) ExpireDue(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = now()
		WHERE status = $2 AND expires_at <= now()
		RETURNING id
	`, models.SubscriptionExpired, models.SubscriptionActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
