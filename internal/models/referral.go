package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Referral links a referred account to the account that invited it.
// An account can be referred at most once.
type Referral struct {
	ID                uuid.UUID `json:"id"`
	ReferrerAccountID uuid.UUID `json:"referrer_account_id"`
	ReferredAccountID uuid.UUID `json:"referred_account_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// ReferralCommission records one commission payout. TransactionID is unique,
// which is what makes settlement idempotent.
type ReferralCommission struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
