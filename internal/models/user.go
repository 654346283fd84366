package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a participant known to the service. The row is created on
// first contact; ID is the opaque identity every other table is keyed by.
type User struct {
	ID string `gorm:"primaryKey" json:"id"`
	// TelegramID is set for Telegram users, zero for WebSocket-only users.
	TelegramID int64 `gorm:"uniqueIndex"`
	// Language is the catalog code used for outbound texts ("en", "ru", "ua").
	Language string `gorm:"default:en"`
}

// BeforeCreate is a GORM hook generating the opaque identity on first insert.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
