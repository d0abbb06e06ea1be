package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/dberrors"
	"github.com/afhamha/afhamha/internal/pkg/logger"
)

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// CreateToken stores a new refresh token
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).Create(&models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}).Error
	if err != nil {
		if dberrors.IsDuplicate(err) {
			logger.Warn().Int64("userID", userID).Msg("Attempted to create duplicate token")
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error creating refresh token")
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

// GetToken returns a usable refresh token; revoked and expired tokens are reported as errors
func (r *TokenRepository) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		if dberrors.IsNotFound(err) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error retrieving token: %w", err)
	}

	if rt.IsRevoked {
		return nil, apperrors.ErrTokenRevoked
	}
	if rt.ExpiresAt.Before(r.now()) {
		return nil, apperrors.ErrTokenExpired
	}
	return &rt, nil
}

// RevokeToken revokes a token. Revoking twice reports ErrTokenRevoked, so a token can be rotated only once.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", token, false).
		Update("is_revoked", true)
	if result.Error != nil {
		logger.Error().Err(result.Error).Msg("Error revoking token")
		return fmt.Errorf("error revoking token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).Where("token = ?", token).Count(&count).Error; err != nil {
			return fmt.Errorf("error revoking token: %w", err)
		}
		if count == 0 {
			return apperrors.ErrTokenNotFound
		}
		return apperrors.ErrTokenRevoked
	}
	return nil
}

// RevokeAllUserTokens revokes every active token of a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
	if err != nil {
		return fmt.Errorf("error revoking user tokens: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes tokens that expired before now and returns how many were removed
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", r.now()).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("error deleting expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
