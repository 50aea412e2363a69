package model

import "time"

// Permission is a single grant, referenced elsewhere by its stable key (e.g. "users.view").
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Description *string   `gorm:"type:varchar(255)" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
