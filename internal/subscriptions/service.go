package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/wallet"
)

// ErrUnknownPlan is returned for a plan name the platform does not sell.
var ErrUnknownPlan = errors.New("unknown subscription plan")

// Plans the platform sells, keyed by name.
var Plans = map[string]models.Plan{
	"starter": {Name: "starter", Price: decimal.NewFromInt(29), DurationDays: 30, QuoteCredits: 10, AdCredits: 0},
	"growth":  {Name: "growth", Price: decimal.NewFromInt(79), DurationDays: 30, QuoteCredits: 40, AdCredits: 5},
	"premium": {Name: "premium", Price: decimal.NewFromInt(199), DurationDays: 30, QuoteCredits: 120, AdCredits: 20},
}

// Store is the subscription repository interface.
type Store interface {
	CreateTx(ctx context.Context, tx pgx.Tx, s *models.Subscription) error
	GetActiveByBusiness(ctx context.Context, businessID uuid.UUID) (*models.Subscription, error)
	ExpireDue(ctx context.Context) ([]uuid.UUID, error)
}

// WalletLookup resolves the purchasing account's wallet.
type WalletLookup interface {
	GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error)
}

// Ledger is the wallet interface plan purchases need.
type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *wallet.Cause) error
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *wallet.Cause) error
}

// TxBeginner opens a database transaction (satisfied by *pgxpool.Pool).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	db      TxBeginner
	subs    Store
	wallets WalletLookup
	ledger  Ledger
}

func NewService(db TxBeginner, subs Store, wallets WalletLookup, ledger Ledger) *Service {
	return &Service{db: db, subs: subs, wallets: wallets, ledger: ledger}
}

// Purchase debits the plan price from the business wallet, grants the plan's
// included credits and activates the subscription, all in one transaction.
// Surfaces wallet.ErrInsufficientFunds when the balance does not cover the
// price.
func (s *Service) Purchase(ctx context.Context, business *models.Business, planName string) (*models.Subscription, error) {
	plan, ok := Plans[planName]
	if !ok {
		return nil, ErrUnknownPlan
	}
	w, err := s.wallets.GetByOwner(ctx, business.AccountID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	sub := &models.Subscription{
		ID:         uuid.New(),
		BusinessID: business.ID,
		Plan:       plan.Name,
		Status:     models.SubscriptionActive,
		StartsAt:   now,
		ExpiresAt:  now.AddDate(0, 0, plan.DurationDays),
	}
	cause := &wallet.Cause{Type: models.EntryCauseSubscription, ID: sub.ID}
	reason := fmt.Sprintf("subscription purchase: %s", plan.Name)
	if err := s.ledger.Debit(ctx, tx, w.ID, models.WalletKindCurrency, plan.Price, reason, cause); err != nil {
		return nil, err
	}
	if plan.QuoteCredits > 0 {
		grant := fmt.Sprintf("quote credits included with %s plan", plan.Name)
		if err := s.ledger.Credit(ctx, tx, w.ID, models.WalletKindQuoteCredit, decimal.NewFromInt(int64(plan.QuoteCredits)), grant, cause); err != nil {
			return nil, err
		}
	}
	if plan.AdCredits > 0 {
		grant := fmt.Sprintf("ad credits included with %s plan", plan.Name)
		if err := s.ledger.Credit(ctx, tx, w.ID, models.WalletKindAdCredit, decimal.NewFromInt(int64(plan.AdCredits)), grant, cause); err != nil {
			return nil, err
		}
	}
	if err := s.subs.CreateTx(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// Active returns the business's current subscription, or nil.
func (s *Service) Active(ctx context.Context, businessID uuid.UUID) (*models.Subscription, error) {
	return s.subs.GetActiveByBusiness(ctx, businessID)
}
