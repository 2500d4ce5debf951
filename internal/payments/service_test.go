package payments

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/referrals"
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

func newMockTransactions() *mockTransactions {
	return &mockTransactions{txns: make(map[uuid.UUID]*models.Transaction)}
}

func (m *mockTransactions) Create(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.txns[t.ID] = &cp
	return nil
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

// MarkCompletedTx mimics the guarded UPDATE: only a pending row flips.
func (m *mockTransactions) MarkCompletedTx(_ context.Context, _ pgx.Tx, id uuid.UUID, reference string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok || t.Status != models.TransactionPending {
		return false, nil
	}
	t.Status = models.TransactionCompleted
	t.Reference = reference
	return true, nil
}

type mockWallets struct {
	wallet *models.Wallet
}

func (m *mockWallets) GetByOwner(_ context.Context, owner uuid.UUID) (*models.Wallet, error) {
	if m.wallet == nil || m.wallet.OwnerAccountID != owner {
		return nil, pgx.ErrNoRows
	}
	cp := *m.wallet
	return &cp, nil
}

type creditRecord struct {
	kind   string
	amount decimal.Decimal
}

type mockLedger struct {
	mu      sync.Mutex
	credits []creditRecord
}

func (m *mockLedger) Credit(_ context.Context, _ pgx.Tx, _ uuid.UUID, kind string, amount decimal.Decimal, _ string, _ *wallet.Cause) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits = append(m.credits, creditRecord{kind: kind, amount: amount})
	return nil
}

type settleRecorder struct {
	mu   sync.Mutex
	args []referrals.SettleCommissionArgs
}

func (r *settleRecorder) insert(_ context.Context, _ pgx.Tx, args referrals.SettleCommissionArgs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.args = append(r.args, args)
	return nil
}

func newTestService() (*Service, *mockTransactions, *mockLedger, *settleRecorder, uuid.UUID) {
	account := uuid.New()
	transactions := newMockTransactions()
	wallets := &mockWallets{wallet: &models.Wallet{ID: uuid.New(), OwnerAccountID: account}}
	ledger := &mockLedger{}
	settles := &settleRecorder{}
	svc := NewService(testutil.DB{}, transactions, wallets, ledger, settles.insert)
	return svc, transactions, ledger, settles, account
}

// ---------------------------------------------------------------------------
// CreatePending
// ---------------------------------------------------------------------------

func TestCreatePendingValidation(t *testing.T) {
	svc, _, _, _, account := newTestService()
	ctx := context.Background()

	cases := []struct {
		name     string
		purpose  string
		amount   decimal.Decimal
		quantity int
	}{
		{"unknown purpose", "gift_card", decimal.NewFromInt(10), 1},
		{"zero amount", models.PurposeWalletTopup, decimal.Zero, 0},
		{"negative amount", models.PurposeWalletTopup, decimal.NewFromInt(-5), 0},
		{"credit pack without quantity", models.PurposeQuoteCredits, decimal.NewFromInt(10), 0},
	}
	for _, tc := range cases {
		if _, err := svc.CreatePending(ctx, account, tc.purpose, tc.amount, tc.quantity, "USD"); err != ErrInvalidPurchase {
			t.Errorf("%s: expected ErrInvalidPurchase, got: %v", tc.name, err)
		}
	}
}

func TestCreatePendingRecordsTransaction(t *testing.T) {
	svc, transactions, _, _, account := newTestService()

	txn, err := svc.CreatePending(context.Background(), account, models.PurposeQuoteCredits, decimal.NewFromInt(50), 10, "USD")
	if err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if txn.Status != models.TransactionPending {
		t.Errorf("status: got %q, want pending", txn.Status)
	}
	stored, err := transactions.GetByID(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("stored transaction: %v", err)
	}
	if stored.Quantity != 10 {
		t.Errorf("quantity: got %d, want 10", stored.Quantity)
	}
}

// ---------------------------------------------------------------------------
// Confirm
// ---------------------------------------------------------------------------

func TestConfirmAppliesPurchaseAndEnqueuesSettle(t *testing.T) {
	svc, transactions, ledger, settles, account := newTestService()
	ctx := context.Background()

	txn, err := svc.CreatePending(ctx, account, models.PurposeQuoteCredits, decimal.NewFromInt(50), 10, "USD")
	if err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if err := svc.Confirm(ctx, txn.ID, "ext-ref-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	stored, _ := transactions.GetByID(ctx, txn.ID)
	if stored.Status != models.TransactionCompleted {
		t.Errorf("status: got %q, want completed", stored.Status)
	}
	if stored.Reference != "ext-ref-1" {
		t.Errorf("reference: got %q, want ext-ref-1", stored.Reference)
	}

	if len(ledger.credits) != 1 {
		t.Fatalf("credits: got %d, want 1", len(ledger.credits))
	}
	if got := ledger.credits[0]; got.kind != models.WalletKindQuoteCredit || !got.amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("credit: got kind %q amount %s, want quote_credit 10", got.kind, got.amount)
	}

	if len(settles.args) != 1 || settles.args[0].TransactionID != txn.ID {
		t.Errorf("settle jobs: got %+v, want one for %s", settles.args, txn.ID)
	}
}

func TestConfirmTopupCreditsCurrency(t *testing.T) {
	svc, _, ledger, _, account := newTestService()
	ctx := context.Background()

	txn, err := svc.CreatePending(ctx, account, models.PurposeWalletTopup, decimal.NewFromFloat(25.50), 0, "USD")
	if err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if err := svc.Confirm(ctx, txn.ID, "ext-ref-2"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if len(ledger.credits) != 1 {
		t.Fatalf("credits: got %d, want 1", len(ledger.credits))
	}
	if got := ledger.credits[0]; got.kind != models.WalletKindCurrency || !got.amount.Equal(decimal.NewFromFloat(25.50)) {
		t.Errorf("credit: got kind %q amount %s, want currency 25.50", got.kind, got.amount)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	svc, _, ledger, settles, account := newTestService()
	ctx := context.Background()

	txn, err := svc.CreatePending(ctx, account, models.PurposeAdCredits, decimal.NewFromInt(30), 5, "USD")
	if err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if err := svc.Confirm(ctx, txn.ID, "ref"); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	if err := svc.Confirm(ctx, txn.ID, "ref"); err != nil {
		t.Fatalf("second Confirm: %v", err)
	}

	// Effects applied exactly once.
	if got := len(ledger.credits); got != 1 {
		t.Errorf("credits after double confirm: got %d, want 1", got)
	}
	if got := len(settles.args); got != 1 {
		t.Errorf("settle jobs after double confirm: got %d, want 1", got)
	}
}

func TestConfirmUnknownTransaction(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if err := svc.Confirm(context.Background(), uuid.New(), "ref"); err != pgx.ErrNoRows {
		t.Errorf("expected pgx.ErrNoRows, got: %v", err)
	}
}
