package service_test

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/mweigel/agentportal/internal/domain"
	"github.com/mweigel/agentportal/internal/repository/sqlite"
	"github.com/mweigel/agentportal/internal/service"
)

const testWebhookSecret = "whsec_test_secret"

type fakeCheckout struct {
	gotParams *stripe.CheckoutSessionParams
	url       string
	err       error
}

func (f *fakeCheckout) CreateSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.gotParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{URL: f.url}, nil
}

func newTestBillingService(t *testing.T, checkout service.CheckoutCreator) (*service.BillingService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	billing := service.NewBillingService(
		checkout,
		db.Users(),
		testWebhookSecret,
		"price_123",
		"http://localhost/checkout/success",
		"http://localhost/premium",
	)
	return billing, db
}

// signedPayload builds a Stripe-Signature header that verifies against
// the raw payload, the same scheme the provider uses.
func signedPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func completedCheckoutPayload(email string) []byte {
	return fmt.Appendf(nil,
		`{"id":"evt_test_1","type":"checkout.session.completed","data":{"object":{"customer_email":%q}}}`,
		email,
	)
}

func TestBillingService_StartCheckout(t *testing.T) {
	checkout := &fakeCheckout{url: "https://checkout.stripe.com/c/pay/cs_test"}
	billing, _ := newTestBillingService(t, checkout)

	url, err := billing.StartCheckout(context.Background(), "buyer@example.com")
	if err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}
	if url != checkout.url {
		t.Fatalf("expected provider URL %q, got %q", checkout.url, url)
	}

	p := checkout.gotParams
	if p == nil {
		t.Fatal("expected checkout params to be sent")
	}
	if got := stripe.StringValue(p.Mode); got != string(stripe.CheckoutSessionModeSubscription) {
		t.Fatalf("expected subscription mode, got %q", got)
	}
	if got := stripe.StringValue(p.CustomerEmail); got != "buyer@example.com" {
		t.Fatalf("expected prefilled customer email, got %q", got)
	}
	if len(p.LineItems) != 1 || stripe.StringValue(p.LineItems[0].Price) != "price_123" {
		t.Fatal("expected one line item with the configured price id")
	}
}

func TestBillingService_StartCheckout_ProviderError(t *testing.T) {
	checkout := &fakeCheckout{err: &stripe.Error{Msg: "No such price: price_123"}}
	billing, _ := newTestBillingService(t, checkout)

	_, err := billing.StartCheckout(context.Background(), "buyer@example.com")
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestBillingService_HandleWebhook_InvalidSignature(t *testing.T) {
	billing, db := newTestBillingService(t, &fakeCheckout{})
	ctx := context.Background()

	user := &domain.User{Email: "a@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := completedCheckoutPayload("a@example.com")
	err := billing.HandleWebhook(ctx, payload, "t=123,v1=deadbeef")
	if !errors.Is(err, domain.ErrWebhookVerification) {
		t.Fatalf("expected ErrWebhookVerification, got %v", err)
	}

	// A forged payload must never mutate any record.
	got, _ := db.Users().GetByID(ctx, user.ID)
	if got.IsPremium {
		t.Fatal("forged webhook must not grant premium")
	}
}

func TestBillingService_HandleWebhook_TamperedPayload(t *testing.T) {
	billing, db := newTestBillingService(t, &fakeCheckout{})
	ctx := context.Background()

	user := &domain.User{Email: "a@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := completedCheckoutPayload("a@example.com")
	header := signedPayload(payload)

	// Flip a byte after signing.
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = 'X'

	err := billing.HandleWebhook(ctx, tampered, header)
	if !errors.Is(err, domain.ErrWebhookVerification) {
		t.Fatalf("expected ErrWebhookVerification, got %v", err)
	}
	got, _ := db.Users().GetByID(ctx, user.ID)
	if got.IsPremium {
		t.Fatal("tampered webhook must not grant premium")
	}
}

func TestBillingService_HandleWebhook_GrantsPremium(t *testing.T) {
	billing, db := newTestBillingService(t, &fakeCheckout{})
	ctx := context.Background()

	user := &domain.User{Email: "a@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := completedCheckoutPayload("a@example.com")
	if err := billing.HandleWebhook(ctx, payload, signedPayload(payload)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got, _ := db.Users().GetByID(ctx, user.ID)
	if !got.IsPremium {
		t.Fatal("expected premium to be granted")
	}

	// Replaying the identical request is a no-op.
	if err := billing.HandleWebhook(ctx, payload, signedPayload(payload)); err != nil {
		t.Fatalf("replayed HandleWebhook: %v", err)
	}
	got, _ = db.Users().GetByID(ctx, user.ID)
	if !got.IsPremium {
		t.Fatal("expected premium to remain granted after replay")
	}
	if billing.UnmatchedCheckouts() != 0 {
		t.Fatal("matched checkout must not count as unmatched")
	}
}

func TestBillingService_HandleWebhook_CustomerDetailsFallback(t *testing.T) {
	billing, db := newTestBillingService(t, &fakeCheckout{})
	ctx := context.Background()

	user := &domain.User{Email: "fallback@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := []byte(`{"id":"evt_test_2","type":"checkout.session.completed","data":{"object":{"customer_details":{"email":"fallback@example.com"}}}}`)
	if err := billing.HandleWebhook(ctx, payload, signedPayload(payload)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got, _ := db.Users().GetByID(ctx, user.ID)
	if !got.IsPremium {
		t.Fatal("expected premium via customer_details email")
	}
}

func TestBillingService_HandleWebhook_UnknownEmail(t *testing.T) {
	billing, db := newTestBillingService(t, &fakeCheckout{})
	ctx := context.Background()

	user := &domain.User{Email: "existing@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := completedCheckoutPayload("stranger@example.com")
	// Ack so the provider stops retrying, but count the anomaly.
	if err := billing.HandleWebhook(ctx, payload, signedPayload(payload)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if billing.UnmatchedCheckouts() != 1 {
		t.Fatalf("expected 1 unmatched checkout, got %d", billing.UnmatchedCheckouts())
	}
	got, _ := db.Users().GetByID(ctx, user.ID)
	if got.IsPremium {
		t.Fatal("unrelated account must stay unchanged")
	}
}

func TestBillingService_HandleWebhook_IgnoresOtherEvents(t *testing.T) {
	billing, db := newTestBillingService(t, &fakeCheckout{})
	ctx := context.Background()

	user := &domain.User{Email: "a@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := []byte(`{"id":"evt_test_3","type":"invoice.paid","data":{"object":{"customer_email":"a@example.com"}}}`)
	if err := billing.HandleWebhook(ctx, payload, signedPayload(payload)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got, _ := db.Users().GetByID(ctx, user.ID)
	if got.IsPremium {
		t.Fatal("non-checkout events must not grant premium")
	}
}

func TestBillingService_HandleWebhook_MissingEmail(t *testing.T) {
	billing, _ := newTestBillingService(t, &fakeCheckout{})

	payload := []byte(`{"id":"evt_test_4","type":"checkout.session.completed","data":{"object":{}}}`)
	err := billing.HandleWebhook(context.Background(), payload, signedPayload(payload))
	if !errors.Is(err, domain.ErrWebhookVerification) {
		t.Fatalf("expected ErrWebhookVerification for email-less event, got %v", err)
	}
}
