package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lovepage-backend/internal/usecase"
)

// ExpiryWorker periodically runs the expiration sweep so a deployment
// without an external cron still deactivates pages past their window.
type ExpiryWorker struct {
	interval time.Duration
	sweepUC  usecase.SweepUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, sweepUC usecase.SweepUseCase, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, sweepUC: sweepUC, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			res, err := w.sweepUC.Sweep(runCtx)
			cancel()
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if res.Processed > 0 {
				w.log.Info().Int("count", res.Processed).Msg("entitlements expired")
			}
		}
	}
}
