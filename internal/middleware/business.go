package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bizquote/backend/internal/models"
)

// BusinessLookup resolves the business profile owned by an account.
type BusinessLookup interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Business, error)
}

// RequireBusiness restricts a route to accounts with a business profile and
// loads the profile into request context. Must run after Auth.
func RequireBusiness(businesses BusinessLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := AccountFromCtx(r.Context())
			if acc == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if acc.Role != models.RoleBusiness {
				http.Error(w, `{"error":"business account required"}`, http.StatusForbidden)
				return
			}

			biz, err := businesses.GetByAccountID(r.Context(), acc.ID)
			if errors.Is(err, pgx.ErrNoRows) {
				http.Error(w, `{"error":"no business profile for account"}`, http.StatusForbidden)
				return
			}
			if err != nil {
				http.Error(w, `{"error":"failed to load business profile"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), ctxBusinessKey, biz)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BusinessFromCtx returns the authenticated business profile or nil.
func BusinessFromCtx(ctx context.Context) *models.Business {
	b, _ := ctx.Value(ctxBusinessKey).(*models.Business)
	return b
}

// WithBusiness returns a context carrying the given business profile.
func WithBusiness(ctx context.Context, b *models.Business) context.Context {
	return context.WithValue(ctx, ctxBusinessKey, b)
}
