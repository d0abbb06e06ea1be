package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/repositories"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/helpers"
)

const recentWindowDays = 7

// AdminService implements account management for admins
type AdminService struct {
	repos     *repositories.Repositories
	trialDays int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(repos *repositories.Repositories, trialDays int, logger zerolog.Logger) *AdminService {
	return &AdminService{
		repos:     repos,
		trialDays: trialDays,
		logger:    logger,
		now:       time.Now,
	}
}

// ListUsers returns a page of users, newest first
func (s *AdminService) ListUsers(ctx context.Context, page, size int) (*dto.PagedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	users, total, err := s.repos.UserRepository.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}

	return &dto.PagedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// GetUser returns a user with their trial status
func (s *AdminService) GetUser(ctx context.Context, id int64) (*dto.ProfileResponse, error) {
	user, err := s.repos.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ProfileResponse{
		User:  dto.NewUserResponse(user),
		Trial: trialStatus(user, s.now(), s.trialDays),
	}, nil
}

// AddCredits grants a positive amount of credits to a user
func (s *AdminService) AddCredits(ctx context.Context, actorID, id int64, amount int) (*dto.UserResponse, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive")
	}
	if amount > dto.MaxCreditGrant {
		return nil, apperrors.NewValidationError(fmt.Sprintf("amount must be at most %d", dto.MaxCreditGrant))
	}

	balance, err := s.repos.UserRepository.AddCredits(ctx, id, amount)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("actorID", actorID).Int64("userID", id).Int("amount", amount).Int("balance", balance).Msg("Credits added")

	user, err := s.repos.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// SetAdmin grants or revokes admin rights. Admins cannot demote themselves.
// A demoted user loses their refresh tokens, so the admin role cannot outlive the access token.
func (s *AdminService) SetAdmin(ctx context.Context, actorID, id int64, isAdmin bool) (*dto.UserResponse, error) {
	if actorID == id && !isAdmin {
		return nil, apperrors.NewForbiddenError("admins cannot revoke their own admin rights")
	}

	err := s.repos.Transaction(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		if err := tx.UserRepository.SetAdmin(ctx, id, isAdmin); err != nil {
			return err
		}
		if !isAdmin {
			return tx.TokenRepository.RevokeAllUserTokens(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("actorID", actorID).Int64("userID", id).Bool("isAdmin", isAdmin).Msg("Admin flag changed")

	user, err := s.repos.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser removes a user with their explanations and tokens
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return apperrors.NewForbiddenError("admins cannot delete their own account")
	}

	if err := s.repos.UserRepository.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Warn().Int64("actorID", actorID).Int64("userID", id).Msg("User deleted")
	return nil
}

// Stats returns the dashboard figures
func (s *AdminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	users, err := s.repos.UserRepository.Stats(ctx)
	if err != nil {
		return nil, err
	}

	explanations, err := s.repos.ExplanationRepository.Count(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repos.ExplanationRepository.CountSince(ctx, helpers.DaysAgo(s.now(), recentWindowDays))
	if err != nil {
		return nil, err
	}

	lessons, err := s.repos.LessonRepository.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("lesson count: %w", err)
	}

	return &dto.StatsResponse{
		Users:              users.Users,
		Admins:             users.Admins,
		Explanations:       explanations,
		RecentExplanations: recent,
		CreditsOutstanding: users.Credits,
		Lessons:            lessons,
	}, nil
}
