package router

import (
	"net/http"

	"github.com/bizquote/backend/internal/auth"
	"github.com/bizquote/backend/internal/businesses"
	"github.com/bizquote/backend/internal/payments"
	"github.com/bizquote/backend/internal/quotes"
	"github.com/bizquote/backend/internal/subscriptions"
	"github.com/bizquote/backend/internal/wallet"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// New returns an http.Handler serving the API under /api/v1.
// authMW loads the account from the bearer token; businessMW additionally
// requires and loads a business profile.
func New(
	authHandler *auth.Handler,
	businessHandler *businesses.Handler,
	quotesHandler *quotes.Handler,
	walletHandler *wallet.Handler,
	paymentsHandler *payments.Handler,
	subsHandler *subscriptions.Handler,
	authMW Middleware,
	businessMW Middleware,
) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	asBusiness := func(h http.HandlerFunc) http.Handler { return authMW(businessMW(h)) }

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.Handle("POST "+base+"/businesses", authed(businessHandler.Upsert))
	mux.Handle("GET "+base+"/businesses/me", asBusiness(businessHandler.Me))

	mux.Handle("POST "+base+"/quote-requests", authed(quotesHandler.CreateRequest))
	mux.Handle("GET "+base+"/quote-requests", authed(quotesHandler.ListRequests))
	mux.Handle("GET "+base+"/quote-requests/available", asBusiness(quotesHandler.Available))
	mux.Handle("POST "+base+"/quote-requests/{id}/close", authed(quotesHandler.CloseRequest))
	mux.Handle("POST "+base+"/quote-requests/{id}/responses", asBusiness(quotesHandler.SubmitResponse))
	mux.Handle("GET "+base+"/quote-requests/{id}/responses", authed(quotesHandler.ListResponses))

	mux.Handle("POST "+base+"/quote-responses/{id}/accept", authed(quotesHandler.Accept))
	mux.Handle("POST "+base+"/quote-responses/{id}/shortlist", authed(quotesHandler.Shortlist))
	mux.Handle("POST "+base+"/quote-responses/{id}/unshortlist", authed(quotesHandler.Unshortlist))
	mux.Handle("POST "+base+"/quote-responses/{id}/reject", authed(quotesHandler.Reject))

	mux.Handle("GET "+base+"/wallet", authed(walletHandler.Get))
	mux.Handle("GET "+base+"/wallet/entries", authed(walletHandler.Entries))
	mux.Handle("POST "+base+"/wallet/withdrawals", authed(walletHandler.RequestWithdrawal))

	mux.Handle("POST "+base+"/payments", authed(paymentsHandler.Create))
	// Verifier callback, authenticated out of band.
	mux.HandleFunc("POST "+base+"/payments/confirm", paymentsHandler.Confirm)

	mux.Handle("POST "+base+"/subscriptions", asBusiness(subsHandler.Purchase))
	mux.Handle("GET "+base+"/subscriptions/active", asBusiness(subsHandler.Active))

	return mux
}
