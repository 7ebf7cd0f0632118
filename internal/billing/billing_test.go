package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79"

	"reviewrouter/internal/blobstore"
)

func stubbedService(store blobstore.Store, raw string, eventType stripe.EventType) *Service {
	svc := NewService(Options{WebhookSecret: "whsec_test"}, store, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	svc.verify = func(payload []byte, _, _ string) (stripe.Event, error) {
		return stripe.Event{
			Type: eventType,
			Data: &stripe.EventData{Raw: json.RawMessage(raw)},
		}, nil
	}
	return svc
}

func TestIsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour).Unix()
	past := now.Add(-24 * time.Hour).Unix()

	tests := []struct {
		name   string
		record Record
		want   bool
	}{
		{"active no end", Record{Status: "active"}, true},
		{"trialing with future trial end", Record{Status: "trialing", TrialEnd: future}, true},
		{"past_due grants access", Record{Status: "past_due", CurrentPeriodEnd: future}, true},
		{"paid invoice status", Record{Status: "paid"}, true},
		{"status case insensitive", Record{Status: "Active"}, true},
		{"canceled", Record{Status: "canceled", CurrentPeriodEnd: future}, false},
		{"unknown status", Record{Status: "incomplete"}, false},
		{"empty status", Record{}, false},
		{"expired period", Record{Status: "active", CurrentPeriodEnd: past}, false},
		{"expired trial but live period", Record{Status: "trialing", TrialEnd: past, CurrentPeriodEnd: future}, true},
		{"live trial but expired period", Record{Status: "active", TrialEnd: future, CurrentPeriodEnd: past}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsActive(&tt.record, now); got != tt.want {
				t.Errorf("IsActive(%+v) = %v, want %v", tt.record, got, tt.want)
			}
		})
	}

	if IsActive(nil, now) {
		t.Error("nil record must not be active")
	}
}

func TestHandleWebhookCheckoutCompleted(t *testing.T) {
	store := blobstore.NewMemory()
	svc := stubbedService(store, `{
		"customer_details": {"email": "Owner@Example.com"},
		"customer": {"id": "cus_123"},
		"subscription": {"id": "sub_123", "status": "trialing", "trial_end": 1780000000},
		"metadata": {"plan": "basic"}
	}`, "checkout.session.completed")

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	var record Record
	found, err := store.GetJSON(context.Background(), "subscription:owner@example.com", &record)
	if err != nil || !found {
		t.Fatalf("record lookup: found=%v err=%v", found, err)
	}
	if record.Status != "trialing" {
		t.Errorf("status = %q, want trialing", record.Status)
	}
	if record.SubscriptionID != "sub_123" || record.CustomerID != "cus_123" {
		t.Errorf("ids = %q / %q", record.SubscriptionID, record.CustomerID)
	}
	if record.Plan != "basic" {
		t.Errorf("plan = %q", record.Plan)
	}
	if record.TrialEnd != 1780000000 {
		t.Errorf("trialEnd = %d", record.TrialEnd)
	}
}

func TestHandleWebhookSubscriptionDeleted(t *testing.T) {
	store := blobstore.NewMemory()
	svc := stubbedService(store, `{
		"id": "sub_456",
		"status": "active",
		"customer": {"id": "cus_456"}
	}`, "customer.subscription.deleted")

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	// No email on the subscription object, so the record keys by customer.
	var record Record
	found, err := store.GetJSON(context.Background(), "customer:cus_456", &record)
	if err != nil || !found {
		t.Fatalf("record lookup: found=%v err=%v", found, err)
	}
	if record.Status != "canceled" {
		t.Errorf("status = %q, want canceled", record.Status)
	}
}

func TestHandleWebhookIgnoresUnknownEvents(t *testing.T) {
	store := blobstore.NewMemory()
	svc := stubbedService(store, `{}`, "customer.created")

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
}

func TestHandleWebhookBadSignature(t *testing.T) {
	svc := NewService(Options{WebhookSecret: "whsec_test"}, blobstore.NewMemory(), nil)
	svc.verify = func(_ []byte, _, _ string) (stripe.Event, error) {
		return stripe.Event{}, errors.New("bad signature")
	}

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("err = %v, want ErrBadSignature", err)
	}
}

func TestHandleWebhookWithoutSecret(t *testing.T) {
	svc := NewService(Options{}, blobstore.NewMemory(), nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestCheckSubscription(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemory()
	svc := NewService(Options{}, store, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	record, _ := json.Marshal(Record{
		Email:            "owner@example.com",
		Status:           "active",
		Plan:             "pro",
		CurrentPeriodEnd: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC).Unix(),
	})
	if err := store.Set(ctx, "subscription:owner@example.com", record, blobstore.SetOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	status, err := svc.CheckSubscription(ctx, "  Owner@Example.COM ")
	if err != nil {
		t.Fatalf("CheckSubscription: %v", err)
	}
	if !status.Active {
		t.Error("expected active subscription")
	}
	if status.Plan != "pro" {
		t.Errorf("plan = %q", status.Plan)
	}
}

func TestCheckSubscriptionMissingRecord(t *testing.T) {
	svc := NewService(Options{}, blobstore.NewMemory(), nil)

	status, err := svc.CheckSubscription(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("CheckSubscription: %v", err)
	}
	if status.Active {
		t.Error("missing record must not be active")
	}
	if status.Status != "none" {
		t.Errorf("status = %q, want none", status.Status)
	}
}

func TestCheckSubscriptionMissingEmail(t *testing.T) {
	svc := NewService(Options{}, blobstore.NewMemory(), nil)

	if _, err := svc.CheckSubscription(context.Background(), "  "); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("err = %v, want ErrMissingEmail", err)
	}
}

func TestCreateCheckoutNotConfigured(t *testing.T) {
	svc := NewService(Options{}, blobstore.NewMemory(), nil)

	if _, err := svc.CreateCheckout("basic", "", "a@example.com"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestCreateCheckoutMissingPrice(t *testing.T) {
	svc := NewService(Options{SecretKey: "sk_test"}, blobstore.NewMemory(), nil)

	if _, err := svc.CreateCheckout("pro", "", "a@example.com"); !errors.Is(err, ErrMissingPrice) {
		t.Errorf("err = %v, want ErrMissingPrice", err)
	}
}
