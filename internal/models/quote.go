package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote request statuses. Open is the only non-terminal state.
const (
	QuoteRequestOpen     = "open"
	QuoteRequestClosed   = "closed"
	QuoteRequestExpired  = "expired"
	QuoteRequestAccepted = "accepted"
)

// Quote response statuses.
const (
	QuoteResponseSubmitted   = "submitted"
	QuoteResponseShortlisted = "shortlisted"
	QuoteResponseAccepted    = "accepted"
	QuoteResponseRejected    = "rejected"
)

type QuoteRequest struct {
	ID                uuid.UUID        `json:"id"`
	CustomerAccountID uuid.UUID        `json:"customer_account_id"`
	CategoryID        uuid.UUID        `json:"category_id"`
	StateID           uuid.UUID        `json:"state_id"`
	CityID            *uuid.UUID       `json:"city_id,omitempty"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	BudgetMin         *decimal.Decimal `json:"budget_min,omitempty"`
	BudgetMax         *decimal.Decimal `json:"budget_max,omitempty"`
	Status            string           `json:"status"`
	ExpiresAt         time.Time        `json:"expires_at"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Open reports whether the request still accepts responses at the given time.
func (q *QuoteRequest) Open(now time.Time) bool {
	return q.Status == QuoteRequestOpen && q.ExpiresAt.After(now)
}

type QuoteResponse struct {
	ID           uuid.UUID       `json:"id"`
	RequestID    uuid.UUID       `json:"request_id"`
	BusinessID   uuid.UUID       `json:"business_id"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime string          `json:"delivery_time"`
	Message      string          `json:"message"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
