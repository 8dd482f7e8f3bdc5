package models

import "time"

// User is upserted by email during mandate creation. UserID is the natural
// id referenced by transactions.
type User struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    string    `gorm:"uniqueIndex;not null" json:"user_id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	PAN       string    `gorm:"column:pan" json:"pan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
