// File: internal/usecase/code_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/repository"
	"lovepage-backend/internal/infra/metrics"
)

// Compile-time check
var _ CodeUseCase = (*codeUC)(nil)

type CodeUseCase interface {
	// Redeem validates the code against the stored records and, on
	// success, activates the page's entitlement without payment.
	// Business rejections come back as the sentinel code errors
	// (ErrCodeNotFound, ErrCodeExpired, ErrCodeExhausted,
	// ErrCodeAlreadyUsed); anything else is a system fault.
	Redeem(ctx context.Context, code, giftPageID string) error
}

type codeUC struct {
	codes     repository.ActivationCodeRepository
	activator ActivationUseCase
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewCodeUseCase(codes repository.ActivationCodeRepository, activator ActivationUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *codeUC {
	l := logger.With().Str("component", "CodeUC").Logger()
	return &codeUC{codes: codes, activator: activator, tm: tm, log: &l}
}

func (u *codeUC) Redeem(ctx context.Context, code, giftPageID string) error {
	code = strings.TrimSpace(code)
	if code == "" || giftPageID == "" {
		return domain.ErrInvalidArgument
	}

	ac, err := u.codes.FindActiveByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			metrics.IncCodeRedemption("invalid")
			return domain.ErrCodeNotFound
		}
		metrics.IncCodeRedemption("error")
		return err
	}

	now := time.Now()
	if ac.Expired(now) {
		metrics.IncCodeRedemption("expired")
		return domain.ErrCodeExpired
	}
	if ac.Exhausted() {
		metrics.IncCodeRedemption("exhausted")
		return domain.ErrCodeExhausted
	}
	// Fast-path check; the unique constraint on the usage insert below
	// is what actually closes the race.
	if _, err := u.codes.FindUsageByGiftPageID(ctx, repository.NoTX, giftPageID); err == nil {
		metrics.IncCodeRedemption("already_used")
		return domain.ErrCodeAlreadyUsed
	} else if !errors.Is(err, domain.ErrNotFound) {
		metrics.IncCodeRedemption("error")
		return err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usage := &model.ActivationCodeUsage{
			ID:         uuid.NewString(),
			CodeID:     ac.ID,
			GiftPageID: giftPageID,
			UsedAt:     now,
		}
		if err := u.codes.InsertUsage(ctx, tx, usage); err != nil {
			return err
		}
		if ac.UsesRemaining != nil {
			// Conditional decrement: fails with ErrCodeExhausted when a
			// concurrent redemption consumed the last use first.
			if err := u.codes.DecrementUses(ctx, tx, ac.ID); err != nil {
				return err
			}
		}
		return u.activator.ActivateEntitlementTx(ctx, tx, giftPageID, nil, nil, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeAlreadyUsed):
			metrics.IncCodeRedemption("already_used")
		case errors.Is(err, domain.ErrCodeExhausted):
			metrics.IncCodeRedemption("exhausted")
		default:
			metrics.IncCodeRedemption("error")
		}
		return err
	}

	metrics.IncCodeRedemption("valid")
	metrics.IncEntitlementActivated("code")
	u.log.Info().Str("page_id", giftPageID).Str("code_id", ac.ID).Msg("activation code redeemed")
	return nil
}
