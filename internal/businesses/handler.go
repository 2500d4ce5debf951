package businesses

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/bizquote/backend/internal/middleware"
	"github.com/bizquote/backend/internal/models"
)

type ProfileRequest struct {
	Name        string      `json:"name"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	StateID     uuid.UUID   `json:"state_id"`
	CityID      *uuid.UUID  `json:"city_id,omitempty"`
	IsActive    *bool       `json:"is_active,omitempty"`
	WebhookURL  string      `json:"webhook_url,omitempty"`
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

// Upsert handles POST /businesses: creates or replaces the caller's profile.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if acc.Role != models.RoleBusiness {
		http.Error(w, "business account required", http.StatusForbidden)
		return
	}
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	b, err := h.svc.Upsert(r.Context(), acc.ID, ProfileParams{
		Name:        req.Name,
		CategoryIDs: req.CategoryIDs,
		StateID:     req.StateID,
		CityID:      req.CityID,
		IsActive:    active,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidProfile) {
			http.Error(w, "name, category_ids and state_id are required", http.StatusBadRequest)
			return
		}
		h.log.Error("business upsert failed", "error", err)
		http.Error(w, "failed to save business profile", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(b)
}

// Me handles GET /businesses/me: returns the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	biz := middleware.BusinessFromCtx(r.Context())
	if biz == nil {
		http.Error(w, "no business profile", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(biz)
}
