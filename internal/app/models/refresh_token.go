package models

import "time"

// RefreshToken is an opaque token that can be exchanged for a new access token once
type RefreshToken struct {
	ID        int64     `gorm:"primaryKey"`
	Token     string    `gorm:"size:64;uniqueIndex;not null"`
	UserID    int64     `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	IsRevoked bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}
