package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/afhamha/afhamha/internal/app/curriculum"
	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/repositories"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/auth"
	"github.com/afhamha/afhamha/internal/pkg/validation"
)

// TokenCleanupInterval is how often expired refresh tokens are removed by default
const TokenCleanupInterval = time.Hour

// AuthService handles registration, login and token refresh
type AuthService struct {
	userRepo      *repositories.UserRepository
	tokenRepo     *repositories.TokenRepository
	jwtService    *auth.JWTService
	signupCredits int
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *repositories.UserRepository,
	tokenRepo *repositories.TokenRepository,
	jwtService *auth.JWTService,
	signupCredits int,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		jwtService:    jwtService,
		signupCredits: signupCredits,
		logger:        logger,
		now:           time.Now,
	}
}

// validatePhone normalises a phone number and checks its format
func validatePhone(raw string) (string, error) {
	phone := validation.NormalizePhone(raw)
	if !validation.IsValidPhone(phone) {
		return "", apperrors.NewCustomError(apperrors.ErrInvalidPhone, "phone number must contain 8 to 15 digits")
	}
	return phone, nil
}

// validateProfile checks the name and study year shared by registration and profile updates
func validateProfile(name, studyYear string) error {
	if !validation.IsValidName(name) {
		return apperrors.NewValidationError("name must be between 2 and 100 characters")
	}
	if !curriculum.IsValidYear(studyYear) {
		return apperrors.NewCustomError(apperrors.ErrUnknownStudyYear, fmt.Sprintf("unknown study year %q", studyYear))
	}
	return nil
}

// Register creates a student account with the signup credits and starts its trial
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	phone, err := validatePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := validateProfile(name, req.StudyYear); err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Phone:     phone,
		Password:  hashedPassword,
		Name:      name,
		StudyYear: req.StudyYear,
		AICredits: s.signupCredits,
		JoinedAt:  s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrPhoneAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("studyYear", user.StudyYear).Msg("Student registered")

	return s.generateAuthResponse(ctx, user)
}

// Login authenticates a user by phone and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	phone := validation.NormalizePhone(req.Phone)
	if phone == "" || req.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login lookup failed: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.generateAuthResponse(ctx, user)
}

// RefreshToken exchanges a refresh token for a new token pair. The old token is revoked.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	rt, err := s.tokenRepo.GetToken(ctx, refreshToken)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenRevoked, apperrors.ErrTokenExpired) {
			s.logger.Warn().Err(err).Msg("Refresh attempted with a stale token")
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// revoking fails if another request already rotated this token
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.generateAuthResponse(ctx, user)
}

// generateAuthResponse issues a token pair and stores the refresh token
func (s *AuthService) generateAuthResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("refresh token storage error: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(pair.ExpiresIn),
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	deleted, err := s.tokenRepo.DeleteExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("Expired refresh tokens removed")
	}
	return deleted, nil
}

// StartTokenCleanup removes expired refresh tokens every interval until ctx is done
func (s *AuthService) StartTokenCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = TokenCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpiredTokens(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("Failed to clean up expired refresh tokens")
			}
		}
	}
}
