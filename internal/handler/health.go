package handler

import (
	"net/http"

	"github.com/mweigel/agentportal/internal/service"
)

// HealthHandler reports liveness plus the webhook anomaly counter, so
// a paid-but-unentitled state is visible from the outside.
type HealthHandler struct {
	billing *service.BillingService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(billing *service.BillingService) *HealthHandler {
	return &HealthHandler{billing: billing}
}

// HandleHealthz responds with a 200 OK and basic process health.
// GET /healthz
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"unmatched_checkouts": h.billing.UnmatchedCheckouts(),
	})
}
