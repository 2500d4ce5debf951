package referrals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/wallet"
)

// ErrTransactionNotCompleted is returned when settling a transaction the
// payment verifier has not confirmed.
var ErrTransactionNotCompleted = errors.New("transaction is not completed")

// TransactionLookup resolves the source payment transaction.
type TransactionLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
}

// Store is the referral repository interface.
type Store interface {
	GetByReferred(ctx context.Context, referredAccountID uuid.UUID) (*models.Referral, error)
	GetCommissionByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.ReferralCommission, error)
	CreateCommissionTx(ctx context.Context, tx pgx.Tx, c *models.ReferralCommission) error
}

// WalletLookup resolves the referrer's wallet.
type WalletLookup interface {
	GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error)
}

// Ledger is the wallet credit interface settlement needs.
type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *wallet.Cause) error
}

// TxBeginner opens a database transaction (satisfied by *pgxpool.Pool).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service settles referral commissions. Settlement is idempotent per
// transaction: the commission row's unique transaction_id is the guard, so
// at-least-once delivery of the triggering job credits at most once.
type Service struct {
	db           TxBeginner
	transactions TransactionLookup
	referrals    Store
	wallets      WalletLookup
	ledger       Ledger
	rate         decimal.Decimal
}

func NewService(db TxBeginner, transactions TransactionLookup, referrals Store, wallets WalletLookup, ledger Ledger, rate decimal.Decimal) *Service {
	return &Service{db: db, transactions: transactions, referrals: referrals, wallets: wallets, ledger: ledger, rate: rate}
}

// Settle credits the referrer of the paying account with a percentage of the
// completed transaction and records the commission, both in one transaction.
// Returns the existing record without crediting again when the transaction
// was already settled, and (nil, nil) when the payer has no referrer.
func (s *Service) Settle(ctx context.Context, transactionID uuid.UUID) (*models.ReferralCommission, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.TransactionCompleted {
		return nil, ErrTransactionNotCompleted
	}
	if existing, err := s.referrals.GetCommissionByTransaction(ctx, transactionID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}
	ref, err := s.referrals.GetByReferred(ctx, txn.AccountID)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, nil
	}
	w, err := s.wallets.GetByOwner(ctx, ref.ReferrerAccountID)
	if err != nil {
		return nil, err
	}
	amount := txn.Amount.Mul(s.rate).Round(2)
	if amount.Sign() <= 0 {
		return nil, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c := &models.ReferralCommission{
		ID:            uuid.New(),
		WalletID:      w.ID,
		TransactionID: txn.ID,
		Amount:        amount,
	}
	// Insert first: a concurrent settle loses here and credits nothing.
	if err := s.referrals.CreateCommissionTx(ctx, tx, c); err != nil {
		if isUniqueViolation(err) {
			return s.referrals.GetCommissionByTransaction(ctx, transactionID)
		}
		return nil, err
	}
	cause := &wallet.Cause{Type: models.EntryCauseTransaction, ID: txn.ID}
	reason := fmt.Sprintf("referral commission for transaction %s", txn.ID)
	if err := s.ledger.Credit(ctx, tx, w.ID, models.WalletKindCurrency, amount, reason, cause); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
