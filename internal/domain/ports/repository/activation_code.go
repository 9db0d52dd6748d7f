package repository

import (
	"context"

	"lovepage-backend/internal/domain/model"
)

// ActivationCodeRepository is the port for promotional activation codes
// and their per-page usage records.
type ActivationCodeRepository interface {
	// Save creates or updates a code (admin/seeding path).
	Save(ctx context.Context, tx Tx, code *model.ActivationCode) error
	// FindActiveByCode finds an active code by case-insensitive match.
	FindActiveByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// DecrementUses atomically decrements uses_remaining when it is
	// finite and positive. Returns domain.ErrCodeExhausted when the
	// conditional update matches no row.
	DecrementUses(ctx context.Context, tx Tx, codeID string) error
	// InsertUsage records a redemption. Returns domain.ErrCodeAlreadyUsed
	// when the page already has a usage row (unique constraint).
	InsertUsage(ctx context.Context, tx Tx, usage *model.ActivationCodeUsage) error
	// FindUsageByGiftPageID returns the usage row for a page, if any.
	FindUsageByGiftPageID(ctx context.Context, tx Tx, giftPageID string) (*model.ActivationCodeUsage, error)
}
