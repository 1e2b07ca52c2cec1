package db

import (
	"time"

	"gorm.io/gorm"
)

// Bot status values. Anything other than BotStatusActive makes the bot
// unusable from the public chat endpoints.
const (
	BotStatusActive   = "active"
	BotStatusInactive = "inactive"
)

// Bot is a chat bot embedded on one website. SecretKey is the bearer
// credential the website's widget presents; it is filled in by BeforeWrite
// and never derived from other fields.
type Bot struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name         string `gorm:"size:255" json:"name"`
	PrimaryColor string `gorm:"size:32" json:"primaryColor"`

	// Website is the origin the bot serves, compared by exact equality.
	Website string `gorm:"size:512;index" json:"website"`

	// KnowledgeBase is used verbatim as the prompt prefix.
	KnowledgeBase string `gorm:"type:text" json:"knowledgeBase"`

	SecretKey string `gorm:"uniqueIndex;size:128;not null" json:"secretKey"`
	Status    string `gorm:"size:16;index;not null" json:"status"`

	UserID *uint `gorm:"index" json:"-"`
	User   *User `gorm:"foreignKey:UserID" json:"users_permissions_user,omitempty"`
}

// BeforeCreate runs the secret provisioner on every insert, whichever code
// path performs it.
func (b *Bot) BeforeCreate(tx *gorm.DB) error {
	return BeforeWrite(nil, b)
}
