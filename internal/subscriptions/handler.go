package subscriptions

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bizquote/backend/internal/middleware"
	"github.com/bizquote/backend/internal/wallet"
)

type PurchaseRequest struct {
	Plan string `json:"plan"`
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

// Purchase handles POST /subscriptions for business accounts.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	biz := middleware.BusinessFromCtx(r.Context())
	if biz == nil {
		http.Error(w, "business account required", http.StatusForbidden)
		return
	}
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	sub, err := h.svc.Purchase(r.Context(), biz, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownPlan):
			http.Error(w, "unknown plan", http.StatusBadRequest)
		case errors.Is(err, wallet.ErrInsufficientFunds):
			http.Error(w, "insufficient funds", http.StatusPaymentRequired)
		default:
			h.log.Error("subscription purchase failed", "plan", req.Plan, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(sub)
}

// Active handles GET /subscriptions/active.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	biz := middleware.BusinessFromCtx(r.Context())
	if biz == nil {
		http.Error(w, "business account required", http.StatusForbidden)
		return
	}
	sub, err := h.svc.Active(r.Context(), biz.ID)
	if err != nil {
		h.log.Error("active subscription lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Error(w, "no active subscription", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sub)
}
