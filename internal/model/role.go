package model

import "time"

// Role groups permissions. PermissionIDs is loaded from role_permissions and is
// always sorted ascending.
type Role struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(64);not null" json:"name"`
	Description   *string   `gorm:"type:varchar(255)" json:"description,omitempty"`
	PermissionIDs []uint    `gorm:"-" json:"permission_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
