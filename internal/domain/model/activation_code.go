package model

import (
	"time"
)

// ActivationCode is a promotional code that grants an entitlement
// without payment. UsesRemaining nil means unlimited; ExpiresAt nil
// means the code never expires.
type ActivationCode struct {
	ID            string // UUID
	Code          string
	IsActive      bool
	UsesRemaining *int
	ExpiresAt     *time.Time
	CreatedAt     time.Time
}

// Expired reports whether the code's expiry, if set, has passed.
func (c *ActivationCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Exhausted reports whether a finite-use code has no uses left.
func (c *ActivationCode) Exhausted() bool {
	return c.UsesRemaining != nil && *c.UsesRemaining <= 0
}

// ActivationCodeUsage records a successful redemption. The store keeps
// GiftPageID unique, so a page can redeem at most one code ever.
type ActivationCodeUsage struct {
	ID         string // UUID
	CodeID     string // UUID of activation code
	GiftPageID string // UUID of gift page; unique
	UsedAt     time.Time
}
