package handler

import (
	"net/http"

	"github.com/mweigel/agentportal/internal/service"
	"github.com/mweigel/agentportal/internal/view"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	billing *service.BillingService,
	search *service.SearchService,
	views *view.Renderer,
	flash *FlashStore,
	premiumPrice string,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(auth, views, flash, cookieSecure)
	pageHandler := NewPageHandler(auth, views, flash, premiumPrice)
	billingHandler := NewBillingHandler(billing, flash)
	searchHandler := NewSearchHandler(search, views, flash)
	healthHandler := NewHealthHandler(billing)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, h)
	}
	requirePremium := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, RequirePremium(flash, h))
	}

	// Public pages.
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", authHandler.HandleLogin)
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", authHandler.HandleRegister)
	mux.HandleFunc("GET /pricing", pageHandler.HandlePricing)
	mux.HandleFunc("GET /checkout/success", pageHandler.HandleCheckoutSuccess)
	mux.HandleFunc("GET /healthz", healthHandler.HandleHealthz)

	// Provider webhook; raw body, signature-verified.
	mux.HandleFunc("POST /webhook", billingHandler.HandleWebhook)

	// Logged-in pages.
	mux.Handle("GET /{$}", requireAuth(pageHandler.HandleHome))
	mux.Handle("GET /logout", requireAuth(authHandler.HandleLogout))
	mux.Handle("GET /dashboard", requireAuth(pageHandler.HandleDashboard))
	mux.Handle("GET /settings", requireAuth(pageHandler.ShowSettings))
	mux.Handle("POST /settings", requireAuth(pageHandler.HandleSettings))
	mux.Handle("GET /premium", requireAuth(pageHandler.HandlePremium))
	mux.Handle("POST /create-checkout-session", requireAuth(billingHandler.HandleCreateCheckoutSession))

	// Premium-gated feature.
	mux.Handle("GET /search", requirePremium(searchHandler.HandleSearch))
	mux.Handle("POST /search", requirePremium(searchHandler.HandleSearch))

	// Everything else is a rendered 404.
	mux.HandleFunc("/", pageHandler.HandleNotFound)
}
