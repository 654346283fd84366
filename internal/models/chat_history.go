package models

import "gorm.io/gorm"

// ChatHistory records a relayed message. The engine only ever appends here;
// review tooling reads it out of band.
type ChatHistory struct {
	gorm.Model

	// SenderID is the identity the message came from.
	SenderID string `gorm:"type:text;not null;index:idx_pair_msg"`
	// RecipientID is the partner the message was forwarded to.
	RecipientID string `gorm:"type:text;not null;index:idx_pair_msg"`
	// Content is the message text as received.
	Content string `gorm:"type:text;not null"`
}
