package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizquote/backend/internal/models"
)

type QuoteResponseRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteResponseRepo(pool *pgxpool.Pool) *QuoteResponseRepo {
	return &QuoteResponseRepo{pool: pool}
}

const quoteResponseColumns = `id, request_id, business_id, price, delivery_time, message, status, created_at, updated_at`

func scanQuoteResponse(row pgx.Row) (*models.QuoteResponse, error) {
	var resp models.QuoteResponse
	err := row.Scan(&resp.ID, &resp.RequestID, &resp.BusinessID, &resp.Price, &resp.DeliveryTime, &resp.Message, &resp.Status, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTx inserts a response inside the given transaction. The table's
// unique (request_id, business_id) constraint backs the one-response-per-pair
// invariant; callers map code 23505 to a duplicate error.
func (r *QuoteResponseRepo) CreateTx(ctx context.Context, tx pgx.Tx, resp *models.QuoteResponse) error {
	return tx.QueryRow(ctx, `
		INSERT INTO quote_responses (id, request_id, business_id, price, delivery_time, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, resp.ID, resp.RequestID, resp.BusinessID, resp.Price, resp.DeliveryTime, resp.Message, resp.Status).Scan(&resp.CreatedAt, &resp.UpdatedAt)
}

func (r *QuoteResponseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QuoteResponse, error) {
	return scanQuoteResponse(r.pool.QueryRow(ctx, `SELECT `+quoteResponseColumns+` FROM quote_responses WHERE id = $1`, id))
}

func (r *QuoteResponseRepo) ExistsForBusiness(ctx context.Context, requestID, businessID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM quote_responses WHERE request_id = $1 AND business_id = $2)
	`, requestID, businessID).Scan(&exists)
	return exists, err
}

func (r *QuoteResponseRepo) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.QuoteResponse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteResponseColumns+` FROM quote_responses
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.QuoteResponse
	for rows.Next() {
		resp, err := scanQuoteResponse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, resp)
	}
	return list, rows.Err()
}

// SetStatusTx moves a response to the given status only when its current
// status is in from. Returns false when the guard did not match.
func (r *QuoteResponseRepo) SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE quote_responses SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)
	`, id, to, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RejectSiblingsTx rejects every submitted or shortlisted response on the
// request except keepID, returning the rejected ids.
func (r *QuoteResponseRepo) RejectSiblingsTx(ctx context.Context, tx pgx.Tx, requestID, keepID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
		UPDATE quote_responses SET status = $3, updated_at = now()
		WHERE request_id = $1 AND id <> $2 AND status = ANY($4)
		RETURNING id
	`, requestID, keepID, models.QuoteResponseRejected, []string{models.QuoteResponseSubmitted, models.QuoteResponseShortlisted})
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
