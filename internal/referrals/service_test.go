package referrals

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/testutil"
	"github.com/bizquote/backend/internal/wallet"
)

// ---------------------------------------------------------------------------
// In-memory mocks.
// ---------------------------------------------------------------------------

type mockTransactions struct {
	mu   sync.Mutex
	txns map[uuid.UUID]*models.Transaction
}

func (m *mockTransactions) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

type mockReferrals struct {
	mu          sync.Mutex
	referrals   map[uuid.UUID]*models.Referral          // keyed by referred account
	commissions map[uuid.UUID]*models.ReferralCommission // keyed by transaction
}

func (m *mockReferrals) GetByReferred(_ context.Context, referred uuid.UUID) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[referred]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockReferrals) GetCommissionByTransaction(_ context.Context, transactionID uuid.UUID) (*models.ReferralCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commissions[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// CreateCommissionTx enforces the unique transaction_id constraint the way
// Postgres reports it.
func (m *mockReferrals) CreateCommissionTx(_ context.Context, _ pgx.Tx, c *models.ReferralCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.commissions[c.TransactionID]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "referral_commissions_transaction_id_key"}
	}
	cp := *c
	m.commissions[c.TransactionID] = &cp
	return nil
}

type mockWallets struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*models.Wallet
}

func (m *mockWallets) GetByOwner(_ context.Context, owner uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[owner]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

type creditRecord struct {
	walletID uuid.UUID
	amount   decimal.Decimal
}

type mockLedger struct {
	mu      sync.Mutex
	credits []creditRecord
}

func (m *mockLedger) Credit(_ context.Context, _ pgx.Tx, walletID uuid.UUID, _ string, amount decimal.Decimal, _ string, _ *wallet.Cause) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits = append(m.credits, creditRecord{walletID: walletID, amount: amount})
	return nil
}

// ---------------------------------------------------------------------------
// Fixture: a referred customer, their referrer, and one completed payment.
// ---------------------------------------------------------------------------

type fixture struct {
	svc          *Service
	ledger       *mockLedger
	referrals    *mockReferrals
	referrer     uuid.UUID
	payer        uuid.UUID
	refWalletID  uuid.UUID
	transaction  *models.Transaction
	transactions *mockTransactions
}

func newFixture(amount decimal.Decimal, status string, referred bool) *fixture {
	f := &fixture{
		referrer:    uuid.New(),
		payer:       uuid.New(),
		refWalletID: uuid.New(),
	}
	f.transaction = &models.Transaction{
		ID:        uuid.New(),
		AccountID: f.payer,
		Amount:    amount,
		Currency:  "USD",
		Purpose:   models.PurposeWalletTopup,
		Status:    status,
	}
	f.transactions = &mockTransactions{txns: map[uuid.UUID]*models.Transaction{f.transaction.ID: f.transaction}}
	f.referrals = &mockReferrals{
		referrals:   make(map[uuid.UUID]*models.Referral),
		commissions: make(map[uuid.UUID]*models.ReferralCommission),
	}
	if referred {
		f.referrals.referrals[f.payer] = &models.Referral{
			ID:                uuid.New(),
			ReferrerAccountID: f.referrer,
			ReferredAccountID: f.payer,
		}
	}
	wallets := &mockWallets{wallets: map[uuid.UUID]*models.Wallet{
		f.referrer: {ID: f.refWalletID, OwnerAccountID: f.referrer},
	}}
	f.ledger = &mockLedger{}
	f.svc = NewService(testutil.DB{}, f.transactions, f.referrals, wallets, f.ledger, decimal.NewFromFloat(0.10))
	return f
}

// ---------------------------------------------------------------------------
// Settle
// ---------------------------------------------------------------------------

func TestSettleCreditsTenPercent(t *testing.T) {
	f := newFixture(decimal.NewFromInt(100), models.TransactionCompleted, true)

	c, err := f.svc.Settle(context.Background(), f.transaction.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if c == nil {
		t.Fatal("expected a commission record")
	}
	if !c.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("commission amount: got %s, want 10", c.Amount)
	}
	if c.WalletID != f.refWalletID {
		t.Error("commission should credit the referrer's wallet")
	}

	if len(f.ledger.credits) != 1 {
		t.Fatalf("credits: got %d, want 1", len(f.ledger.credits))
	}
	if got := f.ledger.credits[0]; got.walletID != f.refWalletID || !got.amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("credit: got wallet %s amount %s, want wallet %s amount 10", got.walletID, got.amount, f.refWalletID)
	}
}

func TestSettleRoundsToCents(t *testing.T) {
	f := newFixture(decimal.NewFromFloat(33.33), models.TransactionCompleted, true)

	c, err := f.svc.Settle(context.Background(), f.transaction.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if want := decimal.NewFromFloat(3.33); !c.Amount.Equal(want) {
		t.Errorf("commission amount: got %s, want %s", c.Amount, want)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	f := newFixture(decimal.NewFromInt(100), models.TransactionCompleted, true)
	ctx := context.Background()

	first, err := f.svc.Settle(ctx, f.transaction.ID)
	if err != nil {
		t.Fatalf("first Settle: %v", err)
	}
	second, err := f.svc.Settle(ctx, f.transaction.ID)
	if err != nil {
		t.Fatalf("second Settle: %v", err)
	}

	if second == nil || second.ID != first.ID {
		t.Error("second settle should return the existing commission")
	}
	// Exactly one credit ever happens.
	if got := len(f.ledger.credits); got != 1 {
		t.Errorf("credits after two settles: got %d, want 1", got)
	}
}

func TestSettleNoReferrer(t *testing.T) {
	f := newFixture(decimal.NewFromInt(100), models.TransactionCompleted, false)

	c, err := f.svc.Settle(context.Background(), f.transaction.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if c != nil {
		t.Error("no referrer should mean no commission")
	}
	if got := len(f.ledger.credits); got != 0 {
		t.Errorf("credits: got %d, want 0", got)
	}
}

func TestSettlePendingTransaction(t *testing.T) {
	f := newFixture(decimal.NewFromInt(100), models.TransactionPending, true)

	if _, err := f.svc.Settle(context.Background(), f.transaction.ID); err != ErrTransactionNotCompleted {
		t.Errorf("expected ErrTransactionNotCompleted, got: %v", err)
	}
	if got := len(f.ledger.credits); got != 0 {
		t.Errorf("credits: got %d, want 0", got)
	}
}

func TestSettleReturnsExistingCommission(t *testing.T) {
	f := newFixture(decimal.NewFromInt(100), models.TransactionCompleted, true)
	ctx := context.Background()

	// A previous settle already recorded the commission.
	existing := &models.ReferralCommission{
		ID:            uuid.New(),
		WalletID:      f.refWalletID,
		TransactionID: f.transaction.ID,
		Amount:        decimal.NewFromInt(10),
	}
	if err := f.referrals.CreateCommissionTx(ctx, testutil.NoopTx{}, existing); err != nil {
		t.Fatalf("seed commission: %v", err)
	}

	c, err := f.svc.Settle(ctx, f.transaction.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if c == nil || c.ID != existing.ID {
		t.Error("settle should surface the existing commission")
	}
	if got := len(f.ledger.credits); got != 0 {
		t.Errorf("credits: got %d, want 0", got)
	}
}
