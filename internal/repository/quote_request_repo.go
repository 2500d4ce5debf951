package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type QuoteRequestRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteRequestRepo(pool *pgxpool.Pool) *QuoteRequestRepo {
	return &QuoteRequestRepo{pool: pool}
}

const quoteRequestColumns = `id, customer_account_id, category_id, state_id, city_id, title, description, budget_min, budget_max, status, expires_at, created_at, updated_at`

func scanQuoteRequest(row pgx.Row) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	err := row.Scan(&q.ID, &q.CustomerAccountID, &q.CategoryID, &q.StateID, &q.CityID, &q.Title, &q.Description, &q.BudgetMin, &q.BudgetMax, &q.Status, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuoteRequestRepo) Create(ctx context.Context, q *models.QuoteRequest) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO quote_requests (id, customer_account_id, category_id, state_id, city_id, title, description, budget_min, budget_max, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, q.ID, q.CustomerAccountID, q.CategoryID, q.StateID, q.CityID, q.Title, q.Description, q.BudgetMin, q.BudgetMax, q.Status, q.ExpiresAt).Scan(&q.CreatedAt, &q.UpdatedAt)
}

func (r *QuoteRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	return scanQuoteRequest(r.pool.QueryRow(ctx, `SELECT `+quoteRequestColumns+` FROM quote_requests WHERE id = $1`, id))
}

// GetByIDForUpdate locks the request row. Call within a transaction.
func (r *QuoteRequestRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.QuoteRequest, error) {
	return scanQuoteRequest(tx.QueryRow(ctx, `SELECT `+quoteRequestColumns+` FROM quote_requests WHERE id = $1 FOR UPDATE`, id))
}

// SetStatusTx updates the request status inside the given transaction.
func (r *QuoteRequestRepo) SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE quote_requests SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

// Close flips an open request to closed. Returns false when the request was
// not open (already closed, expired or accepted).
func (r *QuoteRequestRepo) Close(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quote_requests SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, id, models.QuoteRequestClosed, models.QuoteRequestOpen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireDue flips every open request past its expiry to expired and returns
// the affected ids. The predicate only matches rows still open, so re-running
// the sweep is a no-op.
func (r *QuoteRequestRepo) ExpireDue(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE quote_requests SET status = $1, updated_at = now()
		WHERE status = $2 AND expires_at <= now()
		RETURNING id
	`, models.QuoteRequestExpired, models.QuoteRequestOpen)
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

// AvailableFilter describes the business browsing for requests.
type AvailableFilter struct {
	BusinessID  uuid.UUID
	CategoryIDs []uuid.UUID
	StateID     uuid.UUID
	CityID      *uuid.UUID
	Limit       int
	Offset      int
}

// FindAvailable returns open, unexpired requests matching the business's
// categories and location, excluding requests the business already responded
// to. DISTINCT guards the edge where a request matches at both state and city
// granularity. Ordering is stable (created_at, id) for pagination.
func (r *QuoteRequestRepo) FindAvailable(ctx context.Context, f AvailableFilter) ([]*models.QuoteRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT `+quoteRequestColumns+`
		FROM quote_requests
		WHERE status = $1
		  AND expires_at > now()
		  AND category_id = ANY($2)
		  AND (state_id = $3 OR city_id = $4)
		  AND NOT EXISTS (
			SELECT 1 FROM quote_responses resp
			WHERE resp.request_id = quote_requests.id AND resp.business_id = $5
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $6 OFFSET $7
	`, models.QuoteRequestOpen, f.CategoryIDs, f.StateID, f.CityID, f.BusinessID, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.QuoteRequest
	for rows.Next() {
		q, err := scanQuoteRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

func (r *QuoteRequestRepo) ListByCustomer(ctx context.Context, customerAccountID uuid.UUID) ([]*models.QuoteRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteRequestColumns+` FROM quote_requests
		WHERE customer_account_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.QuoteRequest
	for rows.Next() {
		q, err := scanQuoteRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}
