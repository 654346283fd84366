package models

import "time"

// Session represents one side of an active 1-on-1 conversation.
// Every pairing is stored as two mirror rows: one keyed by each participant,
// pointing at the other. Both rows carry the same nickname and start time.
type Session struct {
	// UserID is the identity this row is keyed by.
	UserID string `gorm:"primaryKey" json:"user_id"`
	// PartnerID is the identity on the other side of the conversation.
	PartnerID string `gorm:"not null;index" json:"partner_id"`
	// Nickname is the shared human-friendly label for this pairing.
	Nickname string `gorm:"not null" json:"nickname"`
	// StartedAt is when the pair was created.
	StartedAt time.Time `gorm:"not null" json:"started_at"`
}

// WaitingEntry represents an identity currently seeking a partner.
// The authoritative waiting pool lives in Redis; this row shape is also what
// the admin tooling reads when reporting queue state.
type WaitingEntry struct {
	UserID     string    `json:"user_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
