package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/atomic"

	"github.com/mweigel/agentportal/internal/domain"
)

// CheckoutCreator creates a hosted checkout session with the payment
// provider. Abstracted so tests can run without Stripe.
type CheckoutCreator interface {
	CreateSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeCheckout is the production CheckoutCreator backed by the
// Stripe API. It relies on stripe.Key being set at startup.
type StripeCheckout struct{}

func (StripeCheckout) CreateSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// BillingService owns the subscription lifecycle: starting a hosted
// checkout and reconciling the provider's webhook events back into
// the account store.
type BillingService struct {
	checkout      CheckoutCreator
	users         domain.UserRepository
	webhookSecret string
	priceID       string
	successURL    string
	cancelURL     string

	// Verified checkout.session.completed events whose email matched
	// no account: paid but unentitled. Surfaced through /healthz.
	unmatched atomic.Int64
}

// NewBillingService creates a new BillingService.
func NewBillingService(checkout CheckoutCreator, users domain.UserRepository, webhookSecret, priceID, successURL, cancelURL string) *BillingService {
	return &BillingService{
		checkout:      checkout,
		users:         users,
		webhookSecret: webhookSecret,
		priceID:       priceID,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// StartCheckout creates a subscription-mode hosted checkout session
// for the given account email and returns the provider URL the
// browser should be redirected to. No card data touches this process.
func (s *BillingService) StartCheckout(ctx context.Context, email string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:       stripe.String(email),
		SuccessURL:          stripe.String(s.successURL),
		CancelURL:           stripe.String(s.cancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.Context = ctx

	sess, err := s.checkout.CreateSession(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return "", fmt.Errorf("%w: %s", domain.ErrProvider, stripeErr.Msg)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}

	return sess.URL, nil
}

// HandleWebhook verifies and processes one provider notification.
//
// Verification runs first, over the raw bytes exactly as received;
// callers must never re-serialize the payload before passing it in.
// Only checkout.session.completed mutates state. Any other verified
// event type is acknowledged and ignored, since the provider retries
// on non-2xx responses.
//
// Returned errors map to responses as follows: ErrWebhookVerification
// means 400 (forged or malformed, no retry wanted); any other error
// is a storage failure and means 500 so the provider retries.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	// The SDK pins an API version; events created under a different
	// dashboard version are still trustworthy once the signature holds.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWebhookVerification, err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		slog.Debug("ignoring webhook event", "type", event.Type, "id", event.ID)
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: decode checkout session: %v", domain.ErrWebhookVerification, err)
	}

	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		return fmt.Errorf("%w: event %s has no customer email", domain.ErrWebhookVerification, event.ID)
	}

	matched, err := s.users.SetPremiumByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("set premium for %s: %w", email, err)
	}
	if !matched {
		// Paid but unentitled. Ack anyway so the provider stops
		// retrying, but make the miss observable.
		s.unmatched.Inc()
		slog.Warn("checkout completed for unknown account", "email", email, "event_id", event.ID)
		return nil
	}

	slog.Info("premium entitlement granted", "email", email, "event_id", event.ID)
	return nil
}

// UnmatchedCheckouts reports how many verified completed checkouts
// matched no local account since startup.
func (s *BillingService) UnmatchedCheckouts() int64 {
	return s.unmatched.Load()
}
