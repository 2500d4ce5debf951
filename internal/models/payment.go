package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment transaction statuses.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// What a transaction purchases. Quantity carries the credit count for the
// credit-pack purposes.
const (
	PurposeQuoteCredits = "quote_credits"
	PurposeAdCredits    = "ad_credits"
	PurposeSubscription = "subscription"
	PurposeWalletTopup  = "wallet_topup"
)

// Transaction is a payment recorded locally and confirmed by the external
// payment verifier.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Purpose   string          `json:"purpose"`
	Quantity  int             `json:"quantity"`
	Status    string          `json:"status"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
