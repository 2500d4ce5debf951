package businesses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bizquote/backend/internal/models"
)

// ErrInvalidProfile is returned when a profile is missing required fields.
var ErrInvalidProfile = errors.New("invalid business profile")

// Store is the business repository interface.
type Store interface {
	Create(ctx context.Context, b *models.Business) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Business, error)
	Update(ctx context.Context, b *models.Business) error
}

// ProfileParams carries a profile create or update.
type ProfileParams struct {
	Name        string
	CategoryIDs []uuid.UUID
	StateID     uuid.UUID
	CityID      *uuid.UUID
	IsActive    bool
	WebhookURL  string
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Upsert creates the account's business profile, or updates it when one
// already exists. One profile per account.
func (s *Service) Upsert(ctx context.Context, accountID uuid.UUID, p ProfileParams) (*models.Business, error) {
	if p.Name == "" || len(p.CategoryIDs) == 0 || p.StateID == uuid.Nil {
		return nil, ErrInvalidProfile
	}

	existing, err := s.store.GetByAccountID(ctx, accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		b := &models.Business{
			ID:          uuid.New(),
			AccountID:   accountID,
			Name:        p.Name,
			CategoryIDs: p.CategoryIDs,
			StateID:     p.StateID,
			CityID:      p.CityID,
			IsActive:    p.IsActive,
			WebhookURL:  p.WebhookURL,
		}
		if err := s.store.Create(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Name = p.Name
	existing.CategoryIDs = p.CategoryIDs
	existing.StateID = p.StateID
	existing.CityID = p.CityID
	existing.IsActive = p.IsActive
	existing.WebhookURL = p.WebhookURL
	if err := s.store.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Get returns the account's business profile.
func (s *Service) Get(ctx context.Context, accountID uuid.UUID) (*models.Business, error) {
	return s.store.GetByAccountID(ctx, accountID)
}
