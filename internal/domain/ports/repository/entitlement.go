package repository

import (
	"context"
	"time"

	"lovepage-backend/internal/domain/model"
)

// EntitlementRepository is the port for entitlement rows.
type EntitlementRepository interface {
	// Upsert inserts or overwrites the entitlement keyed by its
	// gift_page_id conflict target. A second activation for the same
	// page replaces the row instead of duplicating or failing.
	Upsert(ctx context.Context, tx Tx, e *model.Entitlement) error
	FindByGiftPageID(ctx context.Context, tx Tx, giftPageID string) (*model.Entitlement, error)
	// FindExpired returns active entitlements whose expires_at is
	// before the given instant.
	FindExpired(ctx context.Context, tx Tx, now time.Time) ([]*model.Entitlement, error)
	// ExpireAll flips the listed entitlements from active to expired.
	ExpireAll(ctx context.Context, tx Tx, ids []string) error
}
