package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/middleware"
	"github.com/bizquote/backend/internal/models"
	"github.com/bizquote/backend/internal/wallet"
)

type CreateRequestRequest struct {
	CategoryID  uuid.UUID        `json:"category_id"`
	StateID     uuid.UUID        `json:"state_id"`
	CityID      *uuid.UUID       `json:"city_id,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	BudgetMin   *decimal.Decimal `json:"budget_min,omitempty"`
	BudgetMax   *decimal.Decimal `json:"budget_max,omitempty"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

type SubmitResponseRequest struct {
	Price        decimal.Decimal `json:"price"`
	DeliveryTime string          `json:"delivery_time"`
	Message      string          `json:"message"`
}

type Handler struct {
	svc     *Service
	matcher *Matcher
	log     *slog.Logger
}

func NewHandler(svc *Service, matcher *Matcher, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, matcher: matcher, log: log}
}

// CreateRequest handles POST /quote-requests.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.CategoryID == uuid.Nil || req.StateID == uuid.Nil || req.Title == "" {
		http.Error(w, "category_id, state_id and title are required", http.StatusBadRequest)
		return
	}
	q, err := h.svc.CreateRequest(r.Context(), acc.ID, CreateRequestParams{
		CategoryID:  req.CategoryID,
		StateID:     req.StateID,
		CityID:      req.CityID,
		Title:       req.Title,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// ListRequests handles GET /quote-requests: the caller's own requests.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	reqs, err := h.svc.ListRequests(r.Context(), acc.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// CloseRequest handles POST /quote-requests/{id}/close.
func (h *Handler) CloseRequest(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	if err := h.svc.CloseRequest(r.Context(), acc.ID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Available handles GET /quote-requests/available for business accounts.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	biz := middleware.BusinessFromCtx(r.Context())
	if biz == nil {
		http.Error(w, "business account required", http.StatusForbidden)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	reqs, err := h.matcher.FindAvailable(r.Context(), biz, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// SubmitResponse handles POST /quote-requests/{id}/responses.
func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	biz := middleware.BusinessFromCtx(r.Context())
	if biz == nil {
		http.Error(w, "business account required", http.StatusForbidden)
		return
	}
	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	resp, err := h.svc.Submit(r.Context(), biz, requestID, req.Price, req.DeliveryTime, req.Message)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListResponses handles GET /quote-requests/{id}/responses for the owner.
func (h *Handler) ListResponses(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	resps, err := h.svc.ListResponses(r.Context(), acc.ID, requestID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resps)
}

// Accept handles POST /quote-responses/{id}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.responseAction(w, r, h.svc.Accept)
}

// Shortlist handles POST /quote-responses/{id}/shortlist.
func (h *Handler) Shortlist(w http.ResponseWriter, r *http.Request) {
	h.responseAction(w, r, h.svc.Shortlist)
}

// Unshortlist handles POST /quote-responses/{id}/unshortlist.
func (h *Handler) Unshortlist(w http.ResponseWriter, r *http.Request) {
	h.responseAction(w, r, h.svc.Unshortlist)
}

// Reject handles POST /quote-responses/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.responseAction(w, r, h.svc.RejectResponse)
}

func (h *Handler) responseAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, ownerAccountID, responseID uuid.UUID) (*models.QuoteResponse, error)) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	responseID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid response id", http.StatusBadRequest)
		return
	}
	resp, err := action(r.Context(), acc.ID, responseID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateResponse),
		errors.Is(err, ErrRequestClosed),
		errors.Is(err, ErrRequestNotOpen),
		errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, wallet.ErrInsufficientCredits), errors.Is(err, wallet.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, ErrNotRequestOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidBudget), errors.Is(err, ErrInvalidPrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pgx.ErrNoRows):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		h.log.Error("quote operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
