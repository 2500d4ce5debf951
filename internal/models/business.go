package models

import (
	"time"

	"github.com/google/uuid"
)

// Business is a vendor profile owned by an account. CategoryIDs is the set of
// service categories the business is active in; StateID and the optional
// CityID are its service location.
type Business struct {
	ID          uuid.UUID   `json:"id"`
	AccountID   uuid.UUID   `json:"account_id"`
	Name        string      `json:"name"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	StateID     uuid.UUID   `json:"state_id"`
	CityID      *uuid.UUID  `json:"city_id,omitempty"`
	IsActive    bool        `json:"is_active"`
	WebhookURL  string      `json:"webhook_url,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
