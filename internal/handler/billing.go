package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mweigel/agentportal/internal/domain"
	"github.com/mweigel/agentportal/internal/service"
)

// Stripe sends webhook payloads well under this; anything larger is
// not a legitimate event.
const maxWebhookBody = 64 * 1024

// BillingHandler serves checkout initiation and the provider webhook.
type BillingHandler struct {
	billing *service.BillingService
	flash   *FlashStore
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billing *service.BillingService, flash *FlashStore) *BillingHandler {
	return &BillingHandler{billing: billing, flash: flash}
}

// HandleCreateCheckoutSession starts a hosted checkout for the
// authenticated user and redirects the browser to the provider.
// POST /create-checkout-session
func (h *BillingHandler) HandleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	redirectURL, err := h.billing.StartCheckout(r.Context(), user.Email)
	if err != nil {
		slog.Error("start checkout", "email", user.Email, "error", err)
		if errors.Is(err, domain.ErrProvider) {
			h.flash.Add(w, r, "danger", err.Error())
		} else {
			h.flash.Add(w, r, "danger", "Could not start checkout. Please try again.")
		}
		http.Redirect(w, r, "/premium", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// HandleWebhook receives provider notifications. The body is read raw
// and handed to the verifier untouched; parsing before verification
// would re-serialize the payload and silently break the signature
// check.
// POST /webhook
func (h *BillingHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if err := h.billing.HandleWebhook(r.Context(), payload, sigHeader); err != nil {
		if errors.Is(err, domain.ErrWebhookVerification) {
			// Terminal: a retry would fail the same way.
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Storage failure: non-2xx so the provider retries.
		slog.Error("webhook reconciliation", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
