package db

import (
	"time"
)

// User is an account that owns bots and can manage them through the admin
// API. The bootstrap admin user (from env) is created as a row in this
// table on startup.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// IsAdmin marks users that can see every bot and create accounts.
	IsAdmin bool `gorm:"default:false" json:"isAdmin"`
}
