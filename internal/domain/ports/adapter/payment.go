package adapter

import (
	"context"
)

// CheckoutSessionParams describes a hosted checkout session request.
// Metadata is attached to BOTH the session and its payment intent so
// the webhook can recover the gift page id from either object.
type CheckoutSessionParams struct {
	PriceID       string
	SuccessURL    string
	CancelURL     string
	CustomerID    string // reuse an existing processor customer when set
	CustomerEmail string // ad-hoc fallback when no customer was found
	Metadata      map[string]string
}

// CheckoutSession is the provider-agnostic view of a checkout session.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string // "paid" once the payment settled
	CustomerID    string
	Metadata      map[string]string
}

type PaymentIntentParams struct {
	Amount        int64 // minor units
	Currency      string
	CustomerID    string
	ReceiptEmail  string
	Metadata      map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
}

// PromotionCode carries the discount attached to a promotion code's
// coupon. Exactly one of PercentOff / AmountOff is meaningful.
type PromotionCode struct {
	ID         string
	Code       string
	PercentOff float64
	AmountOff  int64 // minor units
}

// PaymentProcessor is the hex port for the external payment service.
type PaymentProcessor interface {
	Name() string

	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*PaymentIntent, error)
	// FindCustomerByEmail returns the existing customer id for the
	// email, or "" when none exists.
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	// FindActivePromotionCode returns the active promotion code
	// matching the exact string, or nil when none matches.
	FindActivePromotionCode(ctx context.Context, code string) (*PromotionCode, error)
}

// WebhookEvent is a verified event delivered by the processor.
type WebhookEvent struct {
	ID      string
	Type    string
	Session CheckoutSession // populated for checkout.session.* events
}

// WebhookVerifier turns a raw webhook body plus signature header into a
// trusted event, enforcing the configured signature mode.
type WebhookVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (*WebhookEvent, error)
}
