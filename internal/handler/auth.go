package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mweigel/agentportal/internal/domain"
	"github.com/mweigel/agentportal/internal/service"
	"github.com/mweigel/agentportal/internal/view"
)

// AuthHandler serves the login, registration, and logout pages.
type AuthHandler struct {
	auth         *service.AuthService
	views        *view.Renderer
	flash        *FlashStore
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, views *view.Renderer, flash *FlashStore, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, views: views, flash: flash, cookieSecure: cookieSecure}
}

// ShowLogin renders the login form.
// GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", view.Page{Title: "Log in"})
}

// HandleLogin processes a login form submission and sets the auth
// cookie on success.
// POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			slog.Error("login user", "error", err)
		}
		// Same message for unknown email and wrong password.
		h.flash.Add(w, r, "danger", "Invalid email or password.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})

	h.flash.Add(w, r, "success", "Login successful.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ShowRegister renders the registration form.
// GET /register
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", view.Page{Title: "Register"})
}

// HandleRegister processes a registration form submission.
// POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	_, err := h.auth.Register(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			h.flash.Add(w, r, "danger", "An account with that email already exists.")
		case errors.Is(err, domain.ErrInvalidInput):
			h.flash.Add(w, r, "warning", "Email and password are required.")
		default:
			slog.Error("register user", "error", err)
			h.flash.Add(w, r, "danger", "Registration failed. Please try again.")
		}
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	h.flash.Add(w, r, "success", "Registration successful. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLogout clears the auth cookie and redirects to the login page.
// GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	h.flash.Add(w, r, "success", "Logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, name string, page view.Page) {
	page.Flashes = h.flash.Pop(w, r)
	if err := h.views.Render(w, name, page); err != nil {
		slog.Error("render page", "template", name, "error", err)
	}
}
