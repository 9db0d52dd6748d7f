// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"lovepage-backend/internal/config"
	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/ports/adapter"
	"lovepage-backend/internal/infra/logging"
	"lovepage-backend/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutResult is the hosted-checkout answer: a redirect URL plus the
// session id the success page hands back for confirmation.
type CheckoutResult struct {
	URL       string
	SessionID string
}

// AppliedPromotion describes the discount applied to a payment intent.
type AppliedPromotion struct {
	Code       string
	PercentOff float64
	AmountOff  int64
}

type PaymentIntentResult struct {
	ClientSecret string
	Amount       int64
	Applied      *AppliedPromotion // nil when no promotion was applied
}

type CheckoutUseCase interface {
	// CreateCheckout builds a hosted checkout session for the page.
	CreateCheckout(ctx context.Context, giftPageID, slug, email string) (*CheckoutResult, error)
	// CreatePaymentIntent builds an embedded-element payment intent,
	// optionally discounted by an active promotion code.
	CreatePaymentIntent(ctx context.Context, giftPageID, slug, email, promotionCode string) (*PaymentIntentResult, error)
}

type checkoutUC struct {
	processor adapter.PaymentProcessor
	stripe    config.StripeConfig
	dev       bool
	log       *zerolog.Logger
}

func NewCheckoutUseCase(processor adapter.PaymentProcessor, stripe config.StripeConfig, dev bool, logger *zerolog.Logger) *checkoutUC {
	l := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{processor: processor, stripe: stripe, dev: dev, log: &l}
}

func (u *checkoutUC) CreateCheckout(ctx context.Context, giftPageID, slug, email string) (*CheckoutResult, error) {
	if giftPageID == "" || slug == "" {
		return nil, domain.ErrInvalidArgument
	}

	params := adapter.CheckoutSessionParams{
		PriceID:    u.stripe.PriceID,
		SuccessURL: withQuery(u.stripe.SuccessURL, map[string]string{"slug": slug, "giftPageId": giftPageID}),
		CancelURL:  withQuery(u.stripe.CancelURL, map[string]string{"slug": slug}),
		Metadata:   map[string]string{"gift_page_id": giftPageID, "slug": slug},
	}

	// Reuse an existing processor customer for the email; the lookup is
	// best effort and falls back to an ad-hoc customer_email.
	if email != "" {
		customerID, err := u.processor.FindCustomerByEmail(ctx, email)
		if err != nil {
			u.log.Warn().Err(err).Str("email", logging.Redact(email, u.dev)).Msg("customer lookup failed; using customer_email")
		}
		if customerID != "" {
			params.CustomerID = customerID
		} else {
			params.CustomerEmail = email
		}
	}

	sess, err := u.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		metrics.IncCheckoutSession("failed")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	metrics.IncCheckoutSession("created")
	u.log.Info().Str("page_id", giftPageID).Str("session_id", sess.ID).Msg("checkout session created")
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

func (u *checkoutUC) CreatePaymentIntent(ctx context.Context, giftPageID, slug, email, promotionCode string) (*PaymentIntentResult, error) {
	if giftPageID == "" || slug == "" {
		return nil, domain.ErrInvalidArgument
	}

	amount := u.stripe.Amount
	var applied *AppliedPromotion

	if code := strings.TrimSpace(promotionCode); code != "" {
		promo, err := u.processor.FindActivePromotionCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("promotion code lookup: %w", err)
		}
		if promo == nil {
			u.log.Warn().Str("code", code).Msg("promotion code not found; charging full amount")
		} else {
			amount = discount(amount, promo)
			applied = &AppliedPromotion{Code: promo.Code, PercentOff: promo.PercentOff, AmountOff: promo.AmountOff}
		}
	}

	pi, err := u.processor.CreatePaymentIntent(ctx, adapter.PaymentIntentParams{
		Amount:       amount,
		Currency:     u.stripe.Currency,
		ReceiptEmail: email,
		Metadata:     map[string]string{"gift_page_id": giftPageID, "slug": slug},
	})
	if err != nil {
		metrics.IncPaymentIntent("failed", applied != nil)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	metrics.IncPaymentIntent("created", applied != nil)
	u.log.Info().Str("page_id", giftPageID).Int64("amount", amount).Msg("payment intent created")
	return &PaymentIntentResult{ClientSecret: pi.ClientSecret, Amount: amount, Applied: applied}, nil
}

// discount applies a percent-off or amount-off coupon, clamped so the
// result never goes negative.
func discount(amount int64, promo *adapter.PromotionCode) int64 {
	switch {
	case promo.PercentOff > 0:
		amount -= int64(math.Round(float64(amount) * promo.PercentOff / 100))
	case promo.AmountOff > 0:
		amount -= promo.AmountOff
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

func withQuery(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
