package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/referrals"
	"github.com/bizquote/backend/internal/wallet"
)

// ErrInvalidPurchase is returned for an unknown purpose or non-positive amount.
var ErrInvalidPurchase = errors.New("invalid purchase")

// TransactionStore is the transaction repository interface.
type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reference string) (bool, error)
}

// WalletLookup resolves the payer's wallet.
type WalletLookup interface {
	GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error)
}

// Ledger is the wallet credit interface confirmation needs.
type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *wallet.Cause) error
}

// TxBeginner opens a database transaction (satisfied by *pgxpool.Pool).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InsertSettleTxFunc enqueues a commission settlement job within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertSettleTxFunc func(ctx context.Context, tx pgx.Tx, args referrals.SettleCommissionArgs) error

// Service records payment transactions and reacts to the external verifier's
// confirmation: purchase effects and the settlement enqueue commit together
// with the status flip or not at all.
type Service struct {
	db           TxBeginner
	transactions TransactionStore
	wallets      WalletLookup
	ledger       Ledger
	insertSettle InsertSettleTxFunc
}

func NewService(db TxBeginner, transactions TransactionStore, wallets WalletLookup, ledger Ledger, insertSettle InsertSettleTxFunc) *Service {
	return &Service{db: db, transactions: transactions, wallets: wallets, ledger: ledger, insertSettle: insertSettle}
}

// CreatePending records a transaction awaiting verifier confirmation.
func (s *Service) CreatePending(ctx context.Context, accountID uuid.UUID, purpose string, amount decimal.Decimal, quantity int, currency string) (*models.Transaction, error) {
	switch purpose {
	case models.PurposeQuoteCredits, models.PurposeAdCredits:
		if quantity <= 0 {
			return nil, ErrInvalidPurchase
		}
	case models.PurposeSubscription, models.PurposeWalletTopup:
	default:
		return nil, ErrInvalidPurchase
	}
	if amount.Sign() <= 0 {
		return nil, ErrInvalidPurchase
	}
	t := &models.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		Currency:  currency,
		Purpose:   purpose,
		Quantity:  quantity,
		Status:    models.TransactionPending,
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Confirm applies a verifier confirmation: flips the pending transaction to
// completed, credits what was purchased, and enqueues commission settlement,
// all in one transaction. A confirmation delivered twice is a no-op the
// second time (the guarded status flip affects zero rows).
func (s *Service) Confirm(ctx context.Context, transactionID uuid.UUID, reference string) error {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := s.transactions.MarkCompletedTx(ctx, tx, transactionID, reference)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := s.applyPurchase(ctx, tx, txn); err != nil {
		return err
	}
	if err := s.insertSettle(ctx, tx, referrals.SettleCommissionArgs{TransactionID: transactionID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) applyPurchase(ctx context.Context, tx pgx.Tx, txn *models.Transaction) error {
	w, err := s.wallets.GetByOwner(ctx, txn.AccountID)
	if err != nil {
		return err
	}
	cause := &wallet.Cause{Type: models.EntryCauseTransaction, ID: txn.ID}
	switch txn.Purpose {
	case models.PurposeQuoteCredits:
		reason := fmt.Sprintf("quote credit purchase (transaction %s)", txn.ID)
		return s.ledger.Credit(ctx, tx, w.ID, models.WalletKindQuoteCredit, decimal.NewFromInt(int64(txn.Quantity)), reason, cause)
	case models.PurposeAdCredits:
		reason := fmt.Sprintf("ad credit purchase (transaction %s)", txn.ID)
		return s.ledger.Credit(ctx, tx, w.ID, models.WalletKindAdCredit, decimal.NewFromInt(int64(txn.Quantity)), reason, cause)
	case models.PurposeWalletTopup:
		reason := fmt.Sprintf("wallet top-up (transaction %s)", txn.ID)
		return s.ledger.Credit(ctx, tx, w.ID, models.WalletKindCurrency, txn.Amount, reason, cause)
	case models.PurposeSubscription:
		// Subscription activation runs through the subscriptions service.
		return nil
	}
	return nil
}
