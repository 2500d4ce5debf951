package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type BusinessRepo struct {
	pool *pgxpool.Pool
}

func NewBusinessRepo(pool *pgxpool.Pool) *BusinessRepo {
	return &BusinessRepo{pool: pool}
}

const businessColumns = `id, account_id, name, category_ids, state_id, city_id, is_active, webhook_url, created_at, updated_at`

func scanBusiness(row pgx.Row) (*models.Business, error) {
	var b models.Business
	err := row.Scan(&b.ID, &b.AccountID, &b.Name, &b.CategoryIDs, &b.StateID, &b.CityID, &b.IsActive, &b.WebhookURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepo) Create(ctx context.Context, b *models.Business) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO businesses (id, account_id, name, category_ids, state_id, city_id, is_active, webhook_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, b.ID, b.AccountID, b.Name, b.CategoryIDs, b.StateID, b.CityID, b.IsActive, b.WebhookURL).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BusinessRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return scanBusiness(r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
}

func (r *BusinessRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Business, error) {
	return scanBusiness(r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE account_id = $1`, accountID))
}

func (r *BusinessRepo) Update(ctx context.Context, b *models.Business) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE businesses SET name = $2, category_ids = $3, state_id = $4, city_id = $5, is_active = $6, webhook_url = $7, updated_at = now()
		WHERE id = $1
	`, b.ID, b.Name, b.CategoryIDs, b.StateID, b.CityID, b.IsActive, b.WebhookURL)
	return err
}
