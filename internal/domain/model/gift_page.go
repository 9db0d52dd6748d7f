package model

import "time"

// GiftPage is the persisted personalized page a user builds. Content
// columns (names, letter, music) are written by the editing flow and
// opaque to this service; only IsActive is mutated here.
type GiftPage struct {
	ID            string // UUID
	Slug          string // URL-unique human-readable identifier
	OwnerID       string // UUID of the owning account
	RecipientName string
	SenderName    string
	Letter        string
	MusicURL      string
	IsActive      bool
	CreatedAt     time.Time
}
