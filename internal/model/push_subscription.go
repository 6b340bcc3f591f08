package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// ZoneWatch marks a subscription as interested in one zone. A push goes out
// when a checkout frees a unit in a watched zone.
type ZoneWatch struct {
	SubscriptionEndpoint string `gorm:"primaryKey"`
	Zone                 string `gorm:"primaryKey;size:64"`
}
