package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet balance kinds. Currency is a decimal amount; quote and ad credits
// are whole consumable units.
const (
	WalletKindCurrency    = "currency"
	WalletKindQuoteCredit = "quote_credit"
	WalletKindAdCredit    = "ad_credit"
)

// Ledger entry cause types (polymorphic reference to the mutating entity).
const (
	EntryCauseQuoteResponse = "quote_response"
	EntryCauseWithdrawal    = "withdrawal_request"
	EntryCauseTransaction   = "transaction"
	EntryCauseSubscription  = "subscription"
)

// Withdrawal request statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalPaid     = "paid"
	WithdrawalRejected = "rejected"
)

type Wallet struct {
	ID             uuid.UUID       `json:"id"`
	OwnerAccountID uuid.UUID       `json:"owner_account_id"`
	Balance        decimal.Decimal `json:"balance"`
	QuoteCredits   int             `json:"quote_credits"`
	AdCredits      int             `json:"ad_credits"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WalletEntry is an immutable, append-only record of one balance change.
// Delta is signed; BalanceAfter snapshots the mutated balance or count.
type WalletEntry struct {
	ID           uuid.UUID       `json:"id"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	Kind         string          `json:"kind"`
	Delta        decimal.Decimal `json:"delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reason       string          `json:"reason"`
	CauseType    *string         `json:"cause_type,omitempty"`
	CauseID      *uuid.UUID      `json:"cause_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type WithdrawalRequest struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
