package businesses

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bizquote/backend/internal/models"
)

type mockStore struct {
	mu        sync.Mutex
	byAccount map[uuid.UUID]*models.Business
	updates   int
}

func newMockStore() *mockStore {
	return &mockStore{byAccount: make(map[uuid.UUID]*models.Business)}
}

func (m *mockStore) Create(_ context.Context, b *models.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.byAccount[b.AccountID] = &cp
	return nil
}

func (m *mockStore) GetByAccountID(_ context.Context, accountID uuid.UUID) (*models.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byAccount[accountID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockStore) Update(_ context.Context, b *models.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.byAccount[b.AccountID] = &cp
	m.updates++
	return nil
}

func validParams() ProfileParams {
	return ProfileParams{
		Name:        "Acme Plumbing",
		CategoryIDs: []uuid.UUID{uuid.New()},
		StateID:     uuid.New(),
		IsActive:    true,
	}
}

func TestUpsertValidatesProfile(t *testing.T) {
	svc := NewService(newMockStore())
	account := uuid.New()
	ctx := context.Background()

	bad := []ProfileParams{
		{CategoryIDs: []uuid.UUID{uuid.New()}, StateID: uuid.New()},       // no name
		{Name: "x", StateID: uuid.New()},                                  // no categories
		{Name: "x", CategoryIDs: []uuid.UUID{uuid.New()}},                 // no state
	}
	for i, p := range bad {
		if _, err := svc.Upsert(ctx, account, p); err != ErrInvalidProfile {
			t.Errorf("case %d: expected ErrInvalidProfile, got: %v", i, err)
		}
	}
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	store := newMockStore()
	svc := NewService(store)
	account := uuid.New()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, account, validParams())
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	if created.AccountID != account {
		t.Error("profile should belong to the account")
	}

	p := validParams()
	p.Name = "Acme Plumbing & Heating"
	updated, err := svc.Upsert(ctx, account, p)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if updated.ID != created.ID {
		t.Error("second upsert should update the existing profile, not create a new one")
	}
	if updated.Name != p.Name {
		t.Errorf("name: got %q, want %q", updated.Name, p.Name)
	}
	if store.updates != 1 {
		t.Errorf("updates: got %d, want 1", store.updates)
	}
}
