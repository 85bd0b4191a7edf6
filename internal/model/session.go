package model

import "time"

// Session is an opaque login token. Its presence in the store is what grants
// access; there is no expiry and no per-user scoping.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:64;not null;uniqueIndex" json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
