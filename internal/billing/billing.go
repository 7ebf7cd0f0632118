// Package billing is the Stripe boundary: checkout session creation,
// webhook ingestion, and the subscription activity check that gates the
// admin surface. Subscription state lives as JSON records in a dedicated
// blobstore namespace, keyed by customer email.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"reviewrouter/internal/blobstore"
)

var (
	// ErrNotConfigured reports missing Stripe credentials.
	ErrNotConfigured = errors.New("stripe is not configured")
	// ErrMissingPrice reports that no price id could be resolved for a plan.
	ErrMissingPrice = errors.New("no price id for plan")
	// ErrMissingEmail reports a subscription check without an email.
	ErrMissingEmail = errors.New("email is required")
	// ErrBadSignature reports a webhook that failed signature verification.
	ErrBadSignature = errors.New("webhook signature verification failed")
)

// Options configures the Stripe boundary.
type Options struct {
	SecretKey     string
	WebhookSecret string
	PriceBasic    string
	PricePro      string
	TrialDays     int64
	BaseURL       string
}

// Record is the stored subscription state for one customer.
type Record struct {
	Email            string `json:"email"`
	CustomerID       string `json:"customerId"`
	SubscriptionID   string `json:"subscriptionId"`
	PriceID          string `json:"priceId"`
	Status           string `json:"status"`
	TrialEnd         int64  `json:"trialEnd,omitempty"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd,omitempty"`
	Plan             string `json:"plan"`
	UpdatedAt        string `json:"updatedAt"`
}

// Status is the subscription check response.
type Status struct {
	Active           bool   `json:"active"`
	Status           string `json:"status"`
	Plan             string `json:"plan"`
	PriceID          string `json:"priceId"`
	TrialEnd         int64  `json:"trialEnd,omitempty"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

// Service wraps the Stripe client and the subscription record store.
type Service struct {
	opts   Options
	store  blobstore.Store
	api    *client.API
	logger *zap.Logger
	now    func() time.Time

	// verify is swappable in tests; production uses webhook.ConstructEvent.
	verify func(payload []byte, header, secret string) (stripe.Event, error)
}

// NewService builds the billing service. A missing secret key is allowed
// at construction; operations that need Stripe fail with ErrNotConfigured.
func NewService(opts Options, store blobstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TrialDays <= 0 {
		opts.TrialDays = 7
	}
	s := &Service{
		opts:   opts,
		store:  store,
		logger: logger,
		now:    time.Now,
		verify: webhook.ConstructEvent,
	}
	if opts.SecretKey != "" {
		s.api = &client.API{}
		s.api.Init(opts.SecretKey, nil)
	}
	return s
}

func (s *Service) priceForPlan(plan string) string {
	switch plan {
	case "pro":
		return s.opts.PricePro
	default:
		return s.opts.PriceBasic
	}
}

// CreateCheckout opens a subscription checkout session and returns its URL.
func (s *Service) CreateCheckout(plan, priceID, email string) (string, error) {
	if s.api == nil {
		return "", ErrNotConfigured
	}
	plan = strings.TrimSpace(plan)
	if plan == "" {
		plan = "basic"
	}
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		priceID = s.priceForPlan(plan)
	}
	if priceID == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingPrice, plan)
	}

	baseURL := strings.TrimRight(s.opts.BaseURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(s.opts.TrialDays),
			Metadata:        map[string]string{"plan": plan},
		},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(baseURL + "/login/?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(baseURL + "/user/?checkout=cancelled"),
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata("plan", plan)
	params.AddMetadata("email", email)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook verifies and applies one Stripe event. Unhandled event
// types are acknowledged without effect.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.opts.WebhookSecret == "" {
		return ErrNotConfigured
	}
	event, err := s.verify(payload, signature, s.opts.WebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	var record *Record
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to decode checkout session: %w", err)
		}
		record = s.recordFromCheckout(&session)
	case "invoice.payment_succeeded", "invoice.paid":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("failed to decode invoice: %w", err)
		}
		record = s.recordFromInvoice(&invoice)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to decode subscription: %w", err)
		}
		record = s.recordFromSubscription(&sub, "canceled")
	default:
		s.logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}

	if record == nil {
		return nil
	}
	return s.saveRecord(ctx, record)
}

func (s *Service) recordFromCheckout(session *stripe.CheckoutSession) *Record {
	record := &Record{
		Status:    "active",
		Plan:      session.Metadata["plan"],
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		record.Email = strings.ToLower(session.CustomerDetails.Email)
	} else if session.CustomerEmail != "" {
		record.Email = strings.ToLower(session.CustomerEmail)
	}
	if session.Customer != nil {
		record.CustomerID = session.Customer.ID
	}
	if sub := session.Subscription; sub != nil {
		record.SubscriptionID = sub.ID
		if sub.Status != "" {
			record.Status = string(sub.Status)
		}
		record.TrialEnd = sub.TrialEnd
		record.CurrentPeriodEnd = sub.CurrentPeriodEnd
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			record.PriceID = sub.Items.Data[0].Price.ID
		}
	}
	return record
}

func (s *Service) recordFromInvoice(invoice *stripe.Invoice) *Record {
	record := &Record{
		Status:    string(invoice.Status),
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if record.Status == "" {
		record.Status = "paid"
	}
	if invoice.CustomerEmail != "" {
		record.Email = strings.ToLower(invoice.CustomerEmail)
	}
	if invoice.Customer != nil {
		record.CustomerID = invoice.Customer.ID
	}
	if sub := invoice.Subscription; sub != nil {
		record.SubscriptionID = sub.ID
		record.TrialEnd = sub.TrialEnd
		record.CurrentPeriodEnd = sub.CurrentPeriodEnd
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			record.PriceID = sub.Items.Data[0].Price.ID
		}
	}
	return record
}

func (s *Service) recordFromSubscription(sub *stripe.Subscription, statusOverride string) *Record {
	record := &Record{
		SubscriptionID:   sub.ID,
		Status:           statusOverride,
		TrialEnd:         sub.TrialEnd,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		Plan:             sub.Metadata["plan"],
		UpdatedAt:        s.now().UTC().Format(time.RFC3339),
	}
	if record.Status == "" {
		record.Status = string(sub.Status)
	}
	if sub.Customer != nil {
		record.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		record.PriceID = sub.Items.Data[0].Price.ID
	}
	return record
}

func recordKey(record *Record) string {
	if record.Email != "" {
		return "subscription:" + record.Email
	}
	customer := record.CustomerID
	if customer == "" {
		customer = "unknown"
	}
	return "customer:" + customer
}

func (s *Service) saveRecord(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode subscription record: %w", err)
	}
	if err := s.store.Set(ctx, recordKey(record), data, blobstore.SetOptions{
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("failed to persist subscription record: %w", err)
	}
	s.logger.Info("subscription record updated",
		zap.String("key", recordKey(record)),
		zap.String("status", record.Status))
	return nil
}

// CheckSubscription reports whether the subscription for email currently
// grants access.
func (s *Service) CheckSubscription(ctx context.Context, email string) (Status, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Status{}, ErrMissingEmail
	}

	raw, found, err := s.store.GetText(ctx, "subscription:"+email)
	if err != nil || !found {
		// Read failures degrade to "no subscription" like every other
		// store read in the system.
		return Status{Status: "none"}, nil
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Status{Status: "none"}, nil
	}

	return Status{
		Active:           IsActive(&record, s.now()),
		Status:           record.Status,
		Plan:             record.Plan,
		PriceID:          record.PriceID,
		TrialEnd:         record.TrialEnd,
		CurrentPeriodEnd: record.CurrentPeriodEnd,
		UpdatedAt:        record.UpdatedAt,
	}, nil
}

// IsActive decides whether a record grants access at the given time:
// the status must allow access and the latest of trial end / period end,
// when set, must not have passed.
func IsActive(record *Record, now time.Time) bool {
	if record == nil {
		return false
	}
	switch strings.ToLower(record.Status) {
	case "active", "trialing", "past_due", "paid":
	default:
		return false
	}
	latestEnd := record.TrialEnd
	if record.CurrentPeriodEnd > latestEnd {
		latestEnd = record.CurrentPeriodEnd
	}
	if latestEnd > 0 && latestEnd < now.Unix() {
		return false
	}
	return true
}
