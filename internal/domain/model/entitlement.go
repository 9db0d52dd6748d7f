package model

import (
	"time"

	"lovepage-backend/internal/domain"
)

type EntitlementStatus string

const (
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusExpired EntitlementStatus = "expired"
)

// Entitlement represents a gift page's paid or code-redeemed access
// window. At most one row exists per page; a second payment overwrites
// the row via the upsert conflict target on GiftPageID.
type Entitlement struct {
	ID         string // UUID
	GiftPageID string // UUID of gift page; unique
	SessionID  *string
	CustomerID *string
	Status     EntitlementStatus
	PaidAt     time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewEntitlement builds an active entitlement whose expiry is exactly
// one calendar year after paidAt.
func NewEntitlement(id, giftPageID string, sessionID, customerID *string, paidAt time.Time) (*Entitlement, error) {
	if id == "" || giftPageID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Entitlement{
		ID:         id,
		GiftPageID: giftPageID,
		SessionID:  sessionID,
		CustomerID: customerID,
		Status:     EntitlementStatusActive,
		PaidAt:     paidAt,
		ExpiresAt:  paidAt.AddDate(1, 0, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
