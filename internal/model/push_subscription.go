package model

import "time"

// PushSubscription holds one browser push subscription for one device of a
// staff account. The endpoint is unique system-wide: a device that
// re-registers under a different account takes its row with it.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
