package model

import "time"

// UsageRecord is an immutable fact: one user occupied one unit for one
// interval. Records are append-only; nothing updates or deletes them.
type UsageRecord struct {
	ID              string    `gorm:"primaryKey;size:64" json:"record_id"`
	EquipmentID     string    `gorm:"index;size:64;not null" json:"equipment_id"`
	Zone            string    `gorm:"index;size:64;not null" json:"zone"`
	User            string    `gorm:"size:128" json:"user"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `gorm:"not null" json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
}
