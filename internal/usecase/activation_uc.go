// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/adapter"
	"lovepage-backend/internal/domain/ports/repository"
	"lovepage-backend/internal/infra/metrics"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

const eventCheckoutCompleted = "checkout.session.completed"

// WebhookResult reports what a webhook delivery amounted to. Ignored
// events (wrong type, no page metadata) are still acknowledged.
type WebhookResult struct {
	EventType string
	Handled   bool
}

type ActivationUseCase interface {
	// ActivateEntitlement idempotently records a paid/redeemed
	// entitlement and flips the page active, all in one transaction.
	ActivateEntitlement(ctx context.Context, giftPageID string, sessionID, customerID *string, paidAt time.Time) error
	// ActivateEntitlementTx is the same routine on a caller-owned
	// transaction (the code redeemer runs it inside its own tx).
	ActivateEntitlementTx(ctx context.Context, tx repository.Tx, giftPageID string, sessionID, customerID *string, paidAt time.Time) error
	// ConfirmCheckoutSession is the redirect path: verify the session
	// against the processor, then activate.
	ConfirmCheckoutSession(ctx context.Context, sessionID, giftPageID string) error
	// HandleWebhook is the asynchronous path: verify the signature,
	// then activate from the event's session metadata.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*WebhookResult, error)
}

type activationUC struct {
	entitlements repository.EntitlementRepository
	pages        repository.GiftPageRepository
	processor    adapter.PaymentProcessor
	verifier     adapter.WebhookVerifier
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewActivationUseCase(
	entitlements repository.EntitlementRepository,
	pages repository.GiftPageRepository,
	processor adapter.PaymentProcessor,
	verifier adapter.WebhookVerifier,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *activationUC {
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{
		entitlements: entitlements,
		pages:        pages,
		processor:    processor,
		verifier:     verifier,
		tm:           tm,
		log:          &l,
	}
}

func (u *activationUC) ActivateEntitlement(ctx context.Context, giftPageID string, sessionID, customerID *string, paidAt time.Time) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.ActivateEntitlementTx(ctx, tx, giftPageID, sessionID, customerID, paidAt)
	})
}

// ActivateEntitlementTx upserts the entitlement BEFORE flipping the
// page: a page must never be active without a backing entitlement, even
// if the transaction aborts between the writes.
func (u *activationUC) ActivateEntitlementTx(ctx context.Context, tx repository.Tx, giftPageID string, sessionID, customerID *string, paidAt time.Time) error {
	ent, err := model.NewEntitlement(uuid.NewString(), giftPageID, sessionID, customerID, paidAt)
	if err != nil {
		return err
	}
	if err := u.entitlements.Upsert(ctx, tx, ent); err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	if err := u.pages.SetActive(ctx, tx, giftPageID, true); err != nil {
		return fmt.Errorf("activate gift page: %w", err)
	}
	u.log.Info().Str("page_id", giftPageID).Time("expires_at", ent.ExpiresAt).Msg("entitlement activated")
	return nil
}

func (u *activationUC) ConfirmCheckoutSession(ctx context.Context, sessionID, giftPageID string) error {
	if sessionID == "" || giftPageID == "" {
		return domain.ErrInvalidArgument
	}

	sess, err := u.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("retrieve session: %w", err)
	}
	if sess.PaymentStatus != "paid" {
		u.log.Warn().Str("session_id", sessionID).Str("payment_status", sess.PaymentStatus).Msg("activation rejected: not paid")
		return domain.ErrPaymentNotCompleted
	}
	// A valid session id for page A must not activate page B.
	if sess.Metadata["gift_page_id"] != giftPageID {
		u.log.Warn().Str("session_id", sessionID).Str("page_id", giftPageID).Msg("activation rejected: page mismatch")
		return domain.ErrPageMismatch
	}

	if err := u.ActivateEntitlement(ctx, giftPageID, &sess.ID, optional(sess.CustomerID), time.Now()); err != nil {
		return err
	}
	metrics.IncEntitlementActivated("checkout")
	return nil
}

func (u *activationUC) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*WebhookResult, error) {
	event, err := u.verifier.ConstructEvent(payload, sigHeader)
	if err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		return nil, err
	}

	if event.Type != eventCheckoutCompleted {
		metrics.IncWebhookEvent(event.Type, "ignored")
		return &WebhookResult{EventType: event.Type}, nil
	}

	giftPageID := event.Session.Metadata["gift_page_id"]
	if giftPageID == "" {
		// A completed session without our metadata belongs to some
		// other flow; acknowledge and move on.
		u.log.Debug().Str("event_id", event.ID).Msg("webhook session without gift_page_id; ignoring")
		metrics.IncWebhookEvent(event.Type, "ignored")
		return &WebhookResult{EventType: event.Type}, nil
	}

	if err := u.ActivateEntitlement(ctx, giftPageID, optional(event.Session.ID), optional(event.Session.CustomerID), time.Now()); err != nil {
		metrics.IncWebhookEvent(event.Type, "error")
		return nil, err
	}
	metrics.IncWebhookEvent(event.Type, "handled")
	metrics.IncEntitlementActivated("webhook")
	return &WebhookResult{EventType: event.Type, Handled: true}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
