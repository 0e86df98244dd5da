package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mweigel/agentportal/internal/domain"
	"github.com/mweigel/agentportal/internal/service"
	"github.com/mweigel/agentportal/internal/view"
)

// PageHandler serves the logged-in pages and the public pages.
type PageHandler struct {
	auth         *service.AuthService
	views        *view.Renderer
	flash        *FlashStore
	premiumPrice string
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(auth *service.AuthService, views *view.Renderer, flash *FlashStore, premiumPrice string) *PageHandler {
	return &PageHandler{auth: auth, views: views, flash: flash, premiumPrice: premiumPrice}
}

// HandleHome redirects the logged-in user to their dashboard.
// GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleDashboard renders the dashboard.
// GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	h.render(w, r, "dashboard.html", view.Page{
		Title:     "Dashboard",
		Email:     user.Email,
		LoggedIn:  true,
		IsPremium: user.IsPremium,
	})
}

// ShowSettings renders the settings page.
// GET /settings
func (h *PageHandler) ShowSettings(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	h.render(w, r, "settings.html", view.Page{
		Title:     "Settings",
		Email:     user.Email,
		LoggedIn:  true,
		IsPremium: user.IsPremium,
	})
}

// HandleSettings updates the account email or password, depending on
// which form field was submitted.
// POST /settings
func (h *PageHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	switch {
	case r.FormValue("email") != "":
		if err := h.auth.UpdateEmail(r.Context(), user, r.FormValue("email")); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				h.flash.Add(w, r, "danger", "That email is already in use.")
			} else {
				slog.Error("update email", "error", err)
				h.flash.Add(w, r, "danger", "Could not update email.")
			}
		} else {
			h.flash.Add(w, r, "success", "Email updated.")
		}
	case r.FormValue("password") != "":
		if err := h.auth.UpdatePassword(r.Context(), user, r.FormValue("password")); err != nil {
			slog.Error("update password", "error", err)
			h.flash.Add(w, r, "danger", "Could not update password.")
		} else {
			h.flash.Add(w, r, "success", "Password updated.")
		}
	default:
		h.flash.Add(w, r, "warning", "Nothing to update.")
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// HandlePremium renders the premium upgrade page with the configured
// display price.
// GET /premium
func (h *PageHandler) HandlePremium(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	h.render(w, r, "premium.html", view.Page{
		Title:     "Premium",
		Email:     user.Email,
		LoggedIn:  true,
		IsPremium: user.IsPremium,
		Price:     h.premiumPrice,
	})
}

// HandlePricing renders the public pricing page.
// GET /pricing
func (h *PageHandler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pricing.html", view.Page{
		Title: "Pricing",
		Price: h.premiumPrice,
	})
}

// HandleCheckoutSuccess renders the post-payment landing page. The
// entitlement itself is granted by the webhook, not by this page.
// GET /checkout/success
func (h *PageHandler) HandleCheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "checkout_success.html", view.Page{Title: "Payment received"})
}

// HandleNotFound renders the 404 page.
func (h *PageHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	page := view.Page{Title: "Not found", Flashes: h.flash.Pop(w, r)}
	w.WriteHeader(http.StatusNotFound)
	if err := h.views.Render(w, "not_found.html", page); err != nil {
		slog.Error("render page", "template", "not_found.html", "error", err)
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, page view.Page) {
	page.Flashes = h.flash.Pop(w, r)
	if err := h.views.Render(w, name, page); err != nil {
		slog.Error("render page", "template", name, "error", err)
	}
}
