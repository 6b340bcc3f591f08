package model

import "time"

// Account is a local identity-provider record. The rest of the system only
// ever sees the opaque ID string.
type Account struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"uniqueIndex;size:256;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
