package model

import "time"

const (
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionSetPermissions = "SET_PERMISSIONS"
	ActionSetRoles       = "SET_ROLES"
)

const (
	EntityPermission = "permission"
	EntityRole       = "role"
	EntityUser       = "user"
	EntityStore      = "store"
	EntityTour       = "tour"
)

// AuditLog tracks Who, What, and When for every committed mutation
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   *uint     `gorm:"index" json:"actor_id"` // nil for seeding and unauthenticated runs
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Entity    string    `gorm:"type:varchar(50);not null" json:"entity"`
	EntityID  uint      `gorm:"not null;index" json:"entity_id"`
	Details   string    `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the action
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
