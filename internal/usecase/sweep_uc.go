// File: internal/usecase/sweep_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lovepage-backend/internal/domain/ports/repository"
	"lovepage-backend/internal/infra/metrics"
)

// Compile-time check
var _ SweepUseCase = (*sweepUC)(nil)

// SweepResult reports one sweeper run.
type SweepResult struct {
	Processed        int
	DeactivatedPages []string
}

type SweepUseCase interface {
	// Sweep expires every active entitlement past its window and
	// deactivates the corresponding pages, all-or-nothing.
	Sweep(ctx context.Context) (*SweepResult, error)
}

type sweepUC struct {
	entitlements repository.EntitlementRepository
	pages        repository.GiftPageRepository
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewSweepUseCase(entitlements repository.EntitlementRepository, pages repository.GiftPageRepository, tm repository.TransactionManager, logger *zerolog.Logger) *sweepUC {
	l := logger.With().Str("component", "SweepUC").Logger()
	return &sweepUC{entitlements: entitlements, pages: pages, tm: tm, log: &l}
}

func (u *sweepUC) Sweep(ctx context.Context) (*SweepResult, error) {
	expired, err := u.entitlements.FindExpired(ctx, repository.NoTX, time.Now())
	if err != nil {
		return nil, fmt.Errorf("find expired entitlements: %w", err)
	}
	if len(expired) == 0 {
		return &SweepResult{Processed: 0}, nil
	}

	entIDs := make([]string, 0, len(expired))
	pageIDs := make([]string, 0, len(expired))
	for _, e := range expired {
		entIDs = append(entIDs, e.ID)
		pageIDs = append(pageIDs, e.GiftPageID)
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.entitlements.ExpireAll(ctx, tx, entIDs); err != nil {
			return fmt.Errorf("expire entitlements: %w", err)
		}
		if err := u.pages.DeactivateAll(ctx, tx, pageIDs); err != nil {
			return fmt.Errorf("deactivate gift pages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncEntitlementsExpired(len(expired))
	u.log.Info().Int("count", len(expired)).Msg("expired entitlements swept")
	return &SweepResult{Processed: len(expired), DeactivatedPages: pageIDs}, nil
}
