package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/repositories"
)

// UserService serves the signed-in user's profile
type UserService struct {
	userRepo  *repositories.UserRepository
	trialDays int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repositories.UserRepository, trialDays int, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		trialDays: trialDays,
		logger:    logger,
		now:       time.Now,
	}
}

// GetProfile returns the user with their trial status
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(user), nil
}

// UpdateProfile changes the user's name and study year
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateProfile(name, req.StudyYear); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, name, req.StudyYear); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", userID).Str("studyYear", req.StudyYear).Msg("Profile updated")
	return s.GetProfile(ctx, userID)
}

func (s *UserService) profile(user *models.User) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		User:  dto.NewUserResponse(user),
		Trial: trialStatus(user, s.now(), s.trialDays),
	}
}

func trialStatus(user *models.User, now time.Time, trialDays int) dto.TrialStatus {
	return dto.TrialStatus{
		EndsAt:   user.TrialEndsAt(trialDays),
		DaysLeft: user.TrialDaysLeft(now, trialDays),
		Expired:  user.TrialExpired(now, trialDays),
	}
}
