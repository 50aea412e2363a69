package model

import "time"

// User is an admin or field agent. RoleIDs and ExtraPermissionIDs come from the
// user_roles and user_permissions link tables, sorted ascending.
type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash       string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName          string    `gorm:"type:varchar(64);not null" json:"first_name"`
	LastName           string    `gorm:"type:varchar(64);not null" json:"last_name"`
	IsActive           bool      `gorm:"not null" json:"is_active"`
	RoleIDs            []uint    `gorm:"-" json:"role_ids"`
	ExtraPermissionIDs []uint    `gorm:"-" json:"extra_permission_ids"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
