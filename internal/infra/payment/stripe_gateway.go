package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lovepage-backend/internal/domain/ports/adapter"
)

// StripeGateway implements adapter.PaymentProcessor with direct HTTP
// calls against the Stripe REST API (form-encoded requests, JSON
// responses, bearer auth).
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewStripeGateway creates a new direct Stripe gateway.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   "https://api.stripe.com/v1",
		client:    &http.Client{},
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

// stripeError is the envelope Stripe wraps API failures in.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stripeSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Customer      string            `json:"customer"`
	Metadata      map[string]string `json:"metadata"`
}

type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
}

type stripeCustomerList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type stripePromotionCodeList struct {
	Data []struct {
		ID     string `json:"id"`
		Code   string `json:"code"`
		Coupon struct {
			PercentOff float64 `json:"percent_off"`
			AmountOff  int64   `json:"amount_off"`
		} `json:"coupon"`
	} `json:"data"`
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutSessionParams) (*adapter.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", p.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	// Metadata goes on the session AND the payment intent so the
	// webhook can read it from whichever object it receives.
	for k, v := range p.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
		form.Set(fmt.Sprintf("payment_intent_data[metadata][%s]", k), v)
	}
	if p.CustomerID != "" {
		form.Set("customer", p.CustomerID)
	} else if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}

	var s stripeSession
	if err := g.do(ctx, http.MethodPost, "/checkout/sessions", form, &s); err != nil {
		return nil, err
	}
	return sessionFromStripe(&s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	var s stripeSession
	if err := g.do(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(sessionID), nil, &s); err != nil {
		return nil, err
	}
	return sessionFromStripe(&s), nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, p adapter.PaymentIntentParams) (*adapter.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("currency", p.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range p.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	if p.CustomerID != "" {
		form.Set("customer", p.CustomerID)
	}
	if p.ReceiptEmail != "" {
		form.Set("receipt_email", p.ReceiptEmail)
	}

	var pi stripePaymentIntent
	if err := g.do(ctx, http.MethodPost, "/payment_intents", form, &pi); err != nil {
		return nil, err
	}
	return &adapter.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
}

func (g *StripeGateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("limit", "1")
	var list stripeCustomerList
	if err := g.do(ctx, http.MethodGet, "/customers?"+q.Encode(), nil, &list); err != nil {
		return "", err
	}
	if len(list.Data) == 0 {
		return "", nil
	}
	return list.Data[0].ID, nil
}

func (g *StripeGateway) FindActivePromotionCode(ctx context.Context, code string) (*adapter.PromotionCode, error) {
	q := url.Values{}
	q.Set("code", code)
	q.Set("active", "true")
	q.Set("limit", "1")
	var list stripePromotionCodeList
	if err := g.do(ctx, http.MethodGet, "/promotion_codes?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	d := list.Data[0]
	return &adapter.PromotionCode{
		ID:         d.ID,
		Code:       d.Code,
		PercentOff: d.Coupon.PercentOff,
		AmountOff:  d.Coupon.AmountOff,
	}, nil
}

// do sends one API call and decodes the JSON response into out.
func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var se stripeError
		if err := json.Unmarshal(raw, &se); err == nil && se.Error.Message != "" {
			return fmt.Errorf("stripe error: %s (%s)", se.Error.Message, se.Error.Type)
		}
		return fmt.Errorf("stripe error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}

func sessionFromStripe(s *stripeSession) *adapter.CheckoutSession {
	return &adapter.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: s.PaymentStatus,
		CustomerID:    s.Customer,
		Metadata:      s.Metadata,
	}
}
