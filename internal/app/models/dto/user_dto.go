package dto

import (
	"time"

	"github.com/afhamha/afhamha/internal/app/models"
)

// UserResponse represents basic user information
type UserResponse struct {
	ID         int64     `json:"id"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	StudyYear  string    `json:"studyYear"`
	Role       string    `json:"role"`
	AICredits  int       `json:"aiCredits"`
	Points     int       `json:"points"`
	StudyHours float64   `json:"studyHours"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// TrialStatus describes the free trial window of an account
type TrialStatus struct {
	EndsAt   time.Time `json:"endsAt"`
	DaysLeft int       `json:"daysLeft"`
	Expired  bool      `json:"expired"`
}

// ProfileResponse is the signed-in user's profile with trial state
type ProfileResponse struct {
	User  UserResponse `json:"user"`
	Trial TrialStatus  `json:"trial"`
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"required"`
	StudyYear string `json:"studyYear" binding:"required"`
}

// NewUserResponse maps a user model onto its public representation
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Phone:      u.Phone,
		Name:       u.Name,
		StudyYear:  u.StudyYear,
		Role:       string(u.Role()),
		AICredits:  u.AICredits,
		Points:     u.Points,
		StudyHours: u.StudyHours,
		JoinedAt:   u.JoinedAt,
	}
}
