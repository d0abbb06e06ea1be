package models

import (
	"math"
	"time"
)

// User is a student account. Admins are users with IsAdmin set.
type User struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Phone      string    `json:"phone" gorm:"size:20;uniqueIndex;not null"`
	Password   string    `json:"-" gorm:"not null"` // bcrypt hash
	Name       string    `json:"name" gorm:"size:100;not null"`
	StudyYear  string    `json:"studyYear" gorm:"size:40;not null;index"`
	AICredits  int       `json:"aiCredits" gorm:"column:ai_credits;not null;default:0"`
	Points     int       `json:"points" gorm:"not null;default:0"`
	StudyHours float64   `json:"studyHours" gorm:"not null;default:0"`
	IsAdmin    bool      `json:"isAdmin" gorm:"not null;default:false"`
	JoinedAt   time.Time `json:"joinedAt" gorm:"default:CURRENT_TIMESTAMP"` // start of the trial window
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Explanations  []Explanation  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	RefreshTokens []RefreshToken `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Role maps the admin flag onto the role carried in access tokens
func (u *User) Role() RoleType {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleStudent
}

// TrialEndsAt returns the instant the free trial closes
func (u *User) TrialEndsAt(trialDays int) time.Time {
	return u.JoinedAt.AddDate(0, 0, trialDays)
}

// TrialExpired reports whether now is past the trial window. Admins never expire.
func (u *User) TrialExpired(now time.Time, trialDays int) bool {
	if u.IsAdmin {
		return false
	}
	return now.After(u.TrialEndsAt(trialDays))
}

// TrialDaysLeft rounds the remaining trial time up to whole days, never below zero
func (u *User) TrialDaysLeft(now time.Time, trialDays int) int {
	left := u.TrialEndsAt(trialDays).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
