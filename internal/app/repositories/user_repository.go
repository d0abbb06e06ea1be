package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/dberrors"
	"github.com/afhamha/afhamha/internal/pkg/logger"
)

// UserStats aggregates account figures for the admin dashboard
type UserStats struct {
	Users   int64
	Admins  int64
	Credits int64
}

// UserRepository handles user database operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A taken phone number returns ErrPhoneAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if dberrors.IsDuplicate(err) {
			return apperrors.ErrPhoneAlreadyExists
		}
		logger.Error().Err(err).Str("phone", user.Phone).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if dberrors.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &user, nil
}

// GetByPhone retrieves a user by normalised phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		if dberrors.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user by phone: %w", err)
	}
	return &user, nil
}

// UpdateProfile changes the name and study year of a user
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, studyYear string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "study_year": studyYear})
	if result.Error != nil {
		return fmt.Errorf("error updating profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// List returns a page of users, newest first, with the total count
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	users := make([]models.User, 0, limit)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	return users, total, nil
}

// AddCredits increases a user's balance and returns the new balance
func (r *UserRepository) AddCredits(ctx context.Context, id int64, amount int) (int, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("ai_credits", gorm.Expr("ai_credits + ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("error adding credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, apperrors.ErrUserNotFound
	}
	return r.balance(ctx, id)
}

// ConsumeCredits charges cost credits and records the engagement of one explanation.
// The balance is checked in the same statement, so concurrent requests cannot overdraw it.
func (r *UserRepository) ConsumeCredits(ctx context.Context, id int64, cost, points int, hours float64) (int, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND ai_credits >= ?", id, cost).
		Updates(map[string]interface{}{
			"ai_credits":  gorm.Expr("ai_credits - ?", cost),
			"points":      gorm.Expr("points + ?", points),
			"study_hours": gorm.Expr("study_hours + ?", hours),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("error consuming credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, apperrors.ErrInsufficientCredits
	}
	return r.balance(ctx, id)
}

func (r *UserRepository) balance(ctx context.Context, id int64) (int, error) {
	var credits int
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Select("ai_credits").Scan(&credits).Error
	if err != nil {
		return 0, fmt.Errorf("error reading balance: %w", err)
	}
	return credits, nil
}

// SetAdmin grants or revokes admin rights
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if result.Error != nil {
		return fmt.Errorf("error updating admin flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Delete removes a user together with their explanations and refresh tokens
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Explanation{}).Error; err != nil {
			return fmt.Errorf("error deleting explanations: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("error deleting user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
}

// Stats returns user, admin and outstanding credit totals in one query
func (r *UserRepository) Stats(ctx context.Context) (UserStats, error) {
	query, args, err := sq.Select(
		"COUNT(*) AS users",
		"COALESCE(SUM(CASE WHEN is_admin THEN 1 ELSE 0 END), 0) AS admins",
		"COALESCE(SUM(ai_credits), 0) AS credits",
	).From("users").ToSql()
	if err != nil {
		return UserStats{}, fmt.Errorf("failed to build user stats query: %w", err)
	}

	var stats UserStats
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		logger.Error().Err(err).Msg("Error executing user stats query")
		return UserStats{}, fmt.Errorf("error retrieving user stats: %w", err)
	}
	return stats, nil
}
