package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
)

// ErrInsufficientFunds is returned when a currency debit exceeds the balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInsufficientCredits is returned when a credit-kind debit exceeds the count.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Cause is the polymorphic reference a ledger entry carries to the entity
// that caused the mutation.
type Cause struct {
	Type string
	ID   uuid.UUID
}

// WalletStore is the minimal wallet repository interface for the ledger.
type WalletStore interface {
	GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error)
	DebitBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	CreditBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	DebitCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, kind string, n int) (int, error)
	CreditCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, kind string, n int) (int, error)
}

// EntryStore is the append-only ledger entry repository interface.
type EntryStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.WalletEntry) error
	ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.WalletEntry, error)
}

// WithdrawalStore persists withdrawal requests.
type WithdrawalStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, w *models.WithdrawalRequest) error
}

// TxBeginner opens a database transaction (satisfied by *pgxpool.Pool).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service is the wallet ledger. Balance mutation happens only through Debit
// and Credit, each of which appends an immutable entry inside the caller's
// transaction, never through a direct balance write.
type Service struct {
	db          TxBeginner
	wallets     WalletStore
	entries     EntryStore
	withdrawals WithdrawalStore
}

func NewService(db TxBeginner, wallets WalletStore, entries EntryStore, withdrawals WithdrawalStore) *Service {
	return &Service{db: db, wallets: wallets, entries: entries, withdrawals: withdrawals}
}

// Debit deducts amount of the given kind from the wallet and appends a
// ledger entry, all inside tx. The sufficiency check rides on the conditional
// UPDATE, so concurrent debits against the same wallet serialize on the row.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *Cause) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("debit amount must be positive, got %s", amount)
	}
	after, err := s.applyDebit(ctx, tx, walletID, kind, amount)
	if err != nil {
		return err
	}
	return s.appendEntry(ctx, tx, walletID, kind, amount.Neg(), after, reason, cause)
}

// Credit adds amount of the given kind to the wallet and appends a ledger
// entry, all inside tx. Credits have no upper bound.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *Cause) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("credit amount must be positive, got %s", amount)
	}
	var after decimal.Decimal
	switch kind {
	case models.WalletKindCurrency:
		newBalance, err := s.wallets.CreditBalance(ctx, tx, walletID, amount)
		if err != nil {
			return err
		}
		after = newBalance
	case models.WalletKindQuoteCredit, models.WalletKindAdCredit:
		n, err := wholeUnits(amount)
		if err != nil {
			return err
		}
		newCount, err := s.wallets.CreditCredits(ctx, tx, walletID, kind, n)
		if err != nil {
			return err
		}
		after = decimal.NewFromInt(int64(newCount))
	default:
		return fmt.Errorf("unknown wallet balance kind %q", kind)
	}
	return s.appendEntry(ctx, tx, walletID, kind, amount, after, reason, cause)
}

func (s *Service) applyDebit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal) (decimal.Decimal, error) {
	switch kind {
	case models.WalletKindCurrency:
		newBalance, err := s.wallets.DebitBalance(ctx, tx, walletID, amount)
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrInsufficientFunds
		}
		return newBalance, err
	case models.WalletKindQuoteCredit, models.WalletKindAdCredit:
		n, err := wholeUnits(amount)
		if err != nil {
			return decimal.Decimal{}, err
		}
		newCount, err := s.wallets.DebitCredits(ctx, tx, walletID, kind, n)
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrInsufficientCredits
		}
		return decimal.NewFromInt(int64(newCount)), err
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown wallet balance kind %q", kind)
	}
}

func (s *Service) appendEntry(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, delta, after decimal.Decimal, reason string, cause *Cause) error {
	e := &models.WalletEntry{
		ID:           uuid.New(),
		WalletID:     walletID,
		Kind:         kind,
		Delta:        delta,
		BalanceAfter: after,
		Reason:       reason,
	}
	if cause != nil {
		e.CauseType = &cause.Type
		e.CauseID = &cause.ID
	}
	return s.entries.CreateTx(ctx, tx, e)
}

// wholeUnits converts a credit-kind amount to an integer unit count.
func wholeUnits(amount decimal.Decimal) (int, error) {
	if !amount.IsInteger() {
		return 0, fmt.Errorf("credit amount must be a whole number, got %s", amount)
	}
	return int(amount.IntPart()), nil
}

// HasSufficient reports whether the wallet covers amount of the given kind.
// Pure read; the authoritative check stays inside Debit.
func HasSufficient(w *models.Wallet, kind string, amount decimal.Decimal) bool {
	switch kind {
	case models.WalletKindCurrency:
		return w.Balance.GreaterThanOrEqual(amount)
	case models.WalletKindQuoteCredit:
		return decimal.NewFromInt(int64(w.QuoteCredits)).GreaterThanOrEqual(amount)
	case models.WalletKindAdCredit:
		return decimal.NewFromInt(int64(w.AdCredits)).GreaterThanOrEqual(amount)
	}
	return false
}

// GetByOwner returns the wallet owned by the given account.
func (s *Service) GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error) {
	return s.wallets.GetByOwner(ctx, ownerAccountID)
}

// Entries returns a page of the wallet's ledger, newest first.
func (s *Service) Entries(ctx context.Context, ownerAccountID uuid.UUID, limit, offset int) ([]*models.WalletEntry, error) {
	w, err := s.wallets.GetByOwner(ctx, ownerAccountID)
	if err != nil {
		return nil, err
	}
	return s.entries.ListByWalletID(ctx, w.ID, limit, offset)
}

// RequestWithdrawal debits the currency balance and records a pending
// withdrawal request in one transaction. The payout itself happens outside
// the platform.
func (s *Service) RequestWithdrawal(ctx context.Context, ownerAccountID uuid.UUID, amount decimal.Decimal) (*models.WithdrawalRequest, error) {
	w, err := s.wallets.GetByOwner(ctx, ownerAccountID)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wd := &models.WithdrawalRequest{
		ID:       uuid.New(),
		WalletID: w.ID,
		Amount:   amount,
		Status:   models.WithdrawalPending,
	}
	if err := s.withdrawals.CreateTx(ctx, tx, wd); err != nil {
		return nil, err
	}
	cause := &Cause{Type: models.EntryCauseWithdrawal, ID: wd.ID}
	if err := s.Debit(ctx, tx, w.ID, models.WalletKindCurrency, amount, fmt.Sprintf("withdrawal request %s", wd.ID), cause); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return wd, nil
}
