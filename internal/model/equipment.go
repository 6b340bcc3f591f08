package model

import "time"

// Equipment status values.
const (
	StatusAvailable = "available"
	StatusInUse     = "in_use"
)

// Equipment represents one physical, individually trackable unit.
//
// Invariant: Status == StatusInUse exactly when CurrentUser is non-empty
// and StartTime is non-nil. Only the check-in/check-out engine mutates
// occupancy fields.
type Equipment struct {
	ID          string     `gorm:"primaryKey;size:64" json:"equipment_id"`
	Name        string     `gorm:"size:128" json:"name"`
	Zone        string     `gorm:"index;size:64;not null" json:"zone"`
	Status      string     `gorm:"size:16;not null;default:available" json:"status"`
	CurrentUser string     `gorm:"size:128" json:"current_user"`
	StartTime   *time.Time `json:"start_time"`
	// AvgDuration is a trailing average of completed session lengths in
	// minutes. Zero means no completed sessions yet.
	AvgDuration int       `json:"avg_duration"`
	UsageCount  int64     `json:"usage_count"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// InUse reports whether the unit currently has an occupant.
func (e *Equipment) InUse() bool {
	return e.Status == StatusInUse
}
