package repository

import (
	"context"

	"lovepage-backend/internal/domain/model"
)

// GiftPageRepository exposes only what the activation flow needs from
// the pages table; content editing lives outside this service.
type GiftPageRepository interface {
	// Save creates or updates a page (used by seeding and tests).
	Save(ctx context.Context, tx Tx, page *model.GiftPage) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GiftPage, error)
	// SetActive flips the page's is_active flag.
	SetActive(ctx context.Context, tx Tx, id string, active bool) error
	// DeactivateAll flips is_active to false for every listed page.
	DeactivateAll(ctx context.Context, tx Tx, ids []string) error
}
