package model

import "time"

// CompetitorStore is a competitor's shop visited by field agents.
type CompetitorStore struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(128);not null" json:"name"`
	Competitor string    `gorm:"type:varchar(128);not null;index" json:"competitor"`
	Address    *string   `gorm:"type:varchar(128)" json:"address,omitempty"`
	City       *string   `gorm:"type:varchar(64)" json:"city,omitempty"`
	Country    *string   `gorm:"type:varchar(64)" json:"country,omitempty"`
	Latitude   float64   `gorm:"not null;index" json:"latitude"`
	Longitude  float64   `gorm:"not null;index" json:"longitude"`
	Phone      *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Website    *string   `gorm:"type:varchar(255)" json:"website,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
