package quotes

import (
	"context"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RequestFinder is the repository interface the matcher reads from.
type RequestFinder interface {
	FindAvailable(ctx context.Context, f repository.AvailableFilter) ([]*models.QuoteRequest, error)
}

// Matcher finds the open quote requests a business may respond to, based on
// category and location overlap. Pure read, no locks.
type Matcher struct {
	requests RequestFinder
}

func NewMatcher(requests RequestFinder) *Matcher {
	return &Matcher{requests: requests}
}

// FindAvailable returns open, unexpired requests in the business's categories
// whose location matches the business's state or city, excluding requests the
// business already responded to. Inactive businesses see nothing.
func (m *Matcher) FindAvailable(ctx context.Context, business *models.Business, limit, offset int) ([]*models.QuoteRequest, error) {
	if !business.IsActive || len(business.CategoryIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return m.requests.FindAvailable(ctx, repository.AvailableFilter{
		BusinessID:  business.ID,
		CategoryIDs: business.CategoryIDs,
		StateID:     business.StateID,
		CityID:      business.CityID,
		Limit:       limit,
		Offset:      offset,
	})
}
