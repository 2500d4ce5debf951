package payments

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/middleware"
)

type CreatePaymentRequest struct {
	Purpose  string          `json:"purpose"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int             `json:"quantity,omitempty"`
	Currency string          `json:"currency"`
}

// ConfirmRequest is the payment verifier's callback payload.
type ConfirmRequest struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reference     string    `json:"reference"`
}

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Create handles POST /payments: records a pending transaction.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	t, err := h.svc.CreatePending(r.Context(), acc.ID, req.Purpose, req.Amount, req.Quantity, req.Currency)
	if err != nil {
		if errors.Is(err, ErrInvalidPurchase) {
			http.Error(w, "invalid purpose, amount or quantity", http.StatusBadRequest)
			return
		}
		h.log.Error("payment create failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(t)
}

// Confirm handles POST /payments/confirm, the verifier callback. Repeated
// confirmations are acknowledged without re-applying effects.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.TransactionID == uuid.Nil {
		http.Error(w, "transaction_id is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.Confirm(r.Context(), req.TransactionID, req.Reference); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "unknown transaction", http.StatusNotFound)
			return
		}
		h.log.Error("payment confirm failed", "transaction_id", req.TransactionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
