package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/ports/adapter"
)

// SignatureMode is an explicit, named operating mode. Skipping
// verification is a deliberate configuration choice, never a silent
// fallback on a missing secret.
type SignatureMode int

const (
	SignatureModeEnforced SignatureMode = iota
	SignatureModeDisabled
)

// DefaultTolerance bounds how old a signed webhook timestamp may be.
const DefaultTolerance = 5 * time.Minute

// StripeWebhookVerifier checks the Stripe-Signature header
// (t=<unix>,v1=<hex>) where v1 = HMAC-SHA256(secret, "<t>.<payload>").
type StripeWebhookVerifier struct {
	secret    string
	mode      SignatureMode
	tolerance time.Duration
	now       func() time.Time
}

var _ adapter.WebhookVerifier = (*StripeWebhookVerifier)(nil)

func NewStripeWebhookVerifier(secret string, mode SignatureMode) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{
		secret:    secret,
		mode:      mode,
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object stripeSession `json:"object"`
	} `json:"data"`
}

// ConstructEvent verifies the payload (unless the verifier runs in
// disabled mode) and parses it into a WebhookEvent.
func (v *StripeWebhookVerifier) ConstructEvent(payload []byte, sigHeader string) (*adapter.WebhookEvent, error) {
	if v.mode == SignatureModeEnforced {
		if err := v.verify(payload, sigHeader); err != nil {
			return nil, err
		}
	}
	var ev stripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	return &adapter.WebhookEvent{
		ID:      ev.ID,
		Type:    ev.Type,
		Session: *sessionFromStripe(&ev.Data.Object),
	}, nil
}

func (v *StripeWebhookVerifier) verify(payload []byte, sigHeader string) error {
	ts, sigs, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return err
	}
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return domain.ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}

func parseSignatureHeader(header string) (ts int64, sigs []string, err error) {
	if header == "" {
		return 0, nil, domain.ErrInvalidSignature
	}
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err = strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, domain.ErrInvalidSignature
			}
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, domain.ErrInvalidSignature
	}
	return ts, sigs, nil
}

// SignPayload produces a valid Stripe-Signature header for a payload.
// Used by tests and local tooling to exercise the enforced path.
func SignPayload(secret string, at time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
