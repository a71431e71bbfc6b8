package models

import (
	"time"

	"gorm.io/gorm"
)

// SentinelUserID is the fallback author for comments whose owning user was
// removed. The row is ensured at boot and never deleted.
const SentinelUserID uint = 1

// User is the identity attached to comments and the destination of reply
// notification emails.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Comments  []Comment `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
