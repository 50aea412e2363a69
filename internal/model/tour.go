package model

import "time"

// Tour is a mission assigned to a collaborator, optionally at a competitor store.
type Tour struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CollaboratorID  uint      `gorm:"not null;index" json:"collaborator_id"`
	AssignedStoreID *uint     `gorm:"index" json:"assigned_store_id"`
	Name            string    `gorm:"type:varchar(128);not null" json:"name"`
	MissionType     string    `gorm:"type:varchar(64);not null" json:"mission_type"`
	Department      *string   `gorm:"type:varchar(64)" json:"department,omitempty"`
	StartDate       time.Time `gorm:"not null;index" json:"start_date"`
	EndDate         time.Time `gorm:"not null" json:"end_date"`
	Notes           *string   `gorm:"type:varchar(1024)" json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TourStatus is derived from the tour dates relative to a reference time.
type TourStatus string

const (
	TourUpcoming TourStatus = "upcoming"
	TourOngoing  TourStatus = "ongoing"
	TourPast     TourStatus = "past"
)

func (t Tour) StatusAt(now time.Time) TourStatus {
	switch {
	case now.Before(t.StartDate):
		return TourUpcoming
	case now.Before(t.EndDate):
		return TourOngoing
	default:
		return TourPast
	}
}
