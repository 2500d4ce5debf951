package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/notify"
	"github.com/bizquote/backend/internal/wallet"
)

var (
	// ErrRequestClosed is returned when submitting to a request that is no
	// longer open or already past its expiry.
	ErrRequestClosed = errors.New("quote request is closed or expired")
	// ErrDuplicateResponse is returned on a second response from the same
	// business to the same request.
	ErrDuplicateResponse = errors.New("business already responded to this request")
	// ErrRequestNotOpen guards response transitions on a non-open request.
	ErrRequestNotOpen = errors.New("quote request is not open")
	// ErrInvalidTransition is returned when a response is not in a state the
	// requested transition starts from.
	ErrInvalidTransition = errors.New("response status does not allow this transition")
	// ErrNotRequestOwner is returned when an account acts on a request it
	// does not own.
	ErrNotRequestOwner = errors.New("account does not own this quote request")
	// ErrInvalidBudget is returned when budget_max is not above budget_min.
	ErrInvalidBudget = errors.New("budget_max must be greater than budget_min")
	// ErrInvalidPrice is returned for a non-positive response price.
	ErrInvalidPrice = errors.New("price must be positive")
)

// Requests are never open longer than this.
const maxRequestTTL = 30 * 24 * time.Hour

// RequestStore is the quote request repository interface.
type RequestStore interface {
	Create(ctx context.Context, q *models.QuoteRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.QuoteRequest, error)
	SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
	Close(ctx context.Context, id uuid.UUID) (bool, error)
	ListByCustomer(ctx context.Context, customerAccountID uuid.UUID) ([]*models.QuoteRequest, error)
}

// ResponseStore is the quote response repository interface.
type ResponseStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, resp *models.QuoteResponse) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuoteResponse, error)
	ExistsForBusiness(ctx context.Context, requestID, businessID uuid.UUID) (bool, error)
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.QuoteResponse, error)
	SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []string, to string) (bool, error)
	RejectSiblingsTx(ctx context.Context, tx pgx.Tx, requestID, keepID uuid.UUID) ([]uuid.UUID, error)
}

// Ledger is the wallet debit interface submission needs.
type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind string, amount decimal.Decimal, reason string, cause *wallet.Cause) error
}

// WalletLookup resolves an account's wallet for the pre-submission credit check.
type WalletLookup interface {
	GetByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Wallet, error)
}

// TxBeginner opens a database transaction (satisfied by *pgxpool.Pool).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service owns the quote request lifecycle and response submission. Every
// multi-row effect runs in a single pgx transaction; notifications fire only
// after commit.
type Service struct {
	db        TxBeginner
	requests  RequestStore
	responses ResponseStore
	wallets   WalletLookup
	ledger    Ledger
	notifier  notify.Notifier
}

func NewService(db TxBeginner, requests RequestStore, responses ResponseStore, wallets WalletLookup, ledger Ledger, notifier notify.Notifier) *Service {
	return &Service{db: db, requests: requests, responses: responses, wallets: wallets, ledger: ledger, notifier: notifier}
}

// CreateRequestParams carries the customer's new request fields.
type CreateRequestParams struct {
	CategoryID  uuid.UUID
	StateID     uuid.UUID
	CityID      *uuid.UUID
	Title       string
	Description string
	BudgetMin   *decimal.Decimal
	BudgetMax   *decimal.Decimal
	ExpiresAt   time.Time
}

// CreateRequest opens a new quote request for the customer. ExpiresAt is
// clamped to at most 30 days out; zero means the full window.
func (s *Service) CreateRequest(ctx context.Context, customerAccountID uuid.UUID, p CreateRequestParams) (*models.QuoteRequest, error) {
	if p.BudgetMin != nil && p.BudgetMax != nil && !p.BudgetMax.GreaterThan(*p.BudgetMin) {
		return nil, ErrInvalidBudget
	}
	now := time.Now()
	expiresAt := p.ExpiresAt
	if expiresAt.IsZero() || expiresAt.After(now.Add(maxRequestTTL)) {
		expiresAt = now.Add(maxRequestTTL)
	}
	q := &models.QuoteRequest{
		ID:                uuid.New(),
		CustomerAccountID: customerAccountID,
		CategoryID:        p.CategoryID,
		StateID:           p.StateID,
		CityID:            p.CityID,
		Title:             p.Title,
		Description:       p.Description,
		BudgetMin:         p.BudgetMin,
		BudgetMax:         p.BudgetMax,
		Status:            models.QuoteRequestOpen,
		ExpiresAt:         expiresAt,
	}
	if err := s.requests.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// CloseRequest flips an open request to closed. Responses are left untouched.
func (s *Service) CloseRequest(ctx context.Context, ownerAccountID, requestID uuid.UUID) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CustomerAccountID != ownerAccountID {
		return ErrNotRequestOwner
	}
	ok, err := s.requests.Close(ctx, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRequestNotOpen
	}
	return nil
}

// Submit creates a response from the business, debiting one quote credit in
// the same transaction as the insert. Preconditions are checked in order:
// request open, no duplicate, sufficient credits. Either both the debit and
// the response persist, or neither does.
func (s *Service) Submit(ctx context.Context, business *models.Business, requestID uuid.UUID, price decimal.Decimal, deliveryTime, message string) (*models.QuoteResponse, error) {
	if price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Open(time.Now()) {
		return nil, ErrRequestClosed
	}
	exists, err := s.responses.ExistsForBusiness(ctx, requestID, business.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateResponse
	}
	w, err := s.wallets.GetByOwner(ctx, business.AccountID)
	if err != nil {
		return nil, err
	}
	if !wallet.HasSufficient(w, models.WalletKindQuoteCredit, decimal.NewFromInt(1)) {
		return nil, wallet.ErrInsufficientCredits
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Re-check under the row lock: the sweep or an accept may have flipped
	// the request since the unlocked read.
	locked, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if !locked.Open(time.Now()) {
		return nil, ErrRequestClosed
	}

	resp := &models.QuoteResponse{
		ID:           uuid.New(),
		RequestID:    requestID,
		BusinessID:   business.ID,
		Price:        price,
		DeliveryTime: deliveryTime,
		Message:      message,
		Status:       models.QuoteResponseSubmitted,
	}
	cause := &wallet.Cause{Type: models.EntryCauseQuoteResponse, ID: resp.ID}
	reason := fmt.Sprintf("quote submission for request %s", requestID)
	if err := s.ledger.Debit(ctx, tx, w.ID, models.WalletKindQuoteCredit, decimal.NewFromInt(1), reason, cause); err != nil {
		return nil, err
	}
	if err := s.responses.CreateTx(ctx, tx, resp); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateResponse
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventResponseSubmitted, requestID, &resp.ID)
	return resp, nil
}

// Accept marks one response accepted, rejects every remaining submitted or
// shortlisted sibling and flips the request to accepted, all in one
// transaction.
func (s *Service) Accept(ctx context.Context, ownerAccountID, responseID uuid.UUID) (*models.QuoteResponse, error) {
	resp, req, err := s.responseWithRequest(ctx, ownerAccountID, responseID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := s.requests.GetByIDForUpdate(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.QuoteRequestOpen {
		return nil, ErrRequestNotOpen
	}
	ok, err := s.responses.SetStatusTx(ctx, tx, responseID,
		[]string{models.QuoteResponseSubmitted, models.QuoteResponseShortlisted},
		models.QuoteResponseAccepted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	rejected, err := s.responses.RejectSiblingsTx(ctx, tx, req.ID, responseID)
	if err != nil {
		return nil, err
	}
	if err := s.requests.SetStatusTx(ctx, tx, req.ID, models.QuoteRequestAccepted); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventResponseAccepted, req.ID, &responseID)
	for _, id := range rejected {
		rid := id
		s.notifier.Notify(ctx, notify.EventResponseRejected, req.ID, &rid)
	}
	resp.Status = models.QuoteResponseAccepted
	return resp, nil
}

// Shortlist moves a submitted response to shortlisted.
func (s *Service) Shortlist(ctx context.Context, ownerAccountID, responseID uuid.UUID) (*models.QuoteResponse, error) {
	return s.transition(ctx, ownerAccountID, responseID,
		[]string{models.QuoteResponseSubmitted}, models.QuoteResponseShortlisted, notify.EventResponseShortlisted)
}

// Unshortlist reverses a shortlist back to submitted.
func (s *Service) Unshortlist(ctx context.Context, ownerAccountID, responseID uuid.UUID) (*models.QuoteResponse, error) {
	return s.transition(ctx, ownerAccountID, responseID,
		[]string{models.QuoteResponseShortlisted}, models.QuoteResponseSubmitted, "")
}

// RejectResponse rejects one response without accepting another.
func (s *Service) RejectResponse(ctx context.Context, ownerAccountID, responseID uuid.UUID) (*models.QuoteResponse, error) {
	return s.transition(ctx, ownerAccountID, responseID,
		[]string{models.QuoteResponseSubmitted, models.QuoteResponseShortlisted}, models.QuoteResponseRejected, notify.EventResponseRejected)
}

// ListResponses returns the responses on a request owned by the caller.
func (s *Service) ListResponses(ctx context.Context, ownerAccountID, requestID uuid.UUID) ([]*models.QuoteResponse, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerAccountID != ownerAccountID {
		return nil, ErrNotRequestOwner
	}
	return s.responses.ListByRequestID(ctx, requestID)
}

// ListRequests returns the caller's own requests.
func (s *Service) ListRequests(ctx context.Context, ownerAccountID uuid.UUID) ([]*models.QuoteRequest, error) {
	return s.requests.ListByCustomer(ctx, ownerAccountID)
}

// transition applies a single response status change under the parent
// request's row lock, requiring the request to still be open.
func (s *Service) transition(ctx context.Context, ownerAccountID, responseID uuid.UUID, from []string, to string, event notify.Event) (*models.QuoteResponse, error) {
	resp, req, err := s.responseWithRequest(ctx, ownerAccountID, responseID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := s.requests.GetByIDForUpdate(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.QuoteRequestOpen {
		return nil, ErrRequestNotOpen
	}
	ok, err := s.responses.SetStatusTx(ctx, tx, responseID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if event != "" {
		s.notifier.Notify(ctx, event, req.ID, &responseID)
	}
	resp.Status = to
	return resp, nil
}

func (s *Service) responseWithRequest(ctx context.Context, ownerAccountID, responseID uuid.UUID) (*models.QuoteResponse, *models.QuoteRequest, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.requests.GetByID(ctx, resp.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if req.CustomerAccountID != ownerAccountID {
		return nil, nil, ErrNotRequestOwner
	}
	return resp, req, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
