package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/dberrors"
)

// ExplanationRepository handles explanation database operations
type ExplanationRepository struct {
	db *gorm.DB
}

// NewExplanationRepository creates a new ExplanationRepository
func NewExplanationRepository(db *gorm.DB) *ExplanationRepository {
	return &ExplanationRepository{db: db}
}

// Create stores a new explanation
func (r *ExplanationRepository) Create(ctx context.Context, e *models.Explanation) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("error creating explanation: %w", err)
	}
	return nil
}

// ListByUser returns a page of a user's explanations, newest first, with the total count
func (r *ExplanationRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]models.Explanation, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Explanation{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting explanations: %w", err)
	}

	items := make([]models.Explanation, 0, limit)
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing explanations: %w", err)
	}
	return items, total, nil
}

// GetForUser returns an explanation owned by the user. Other users' explanations are reported as not found.
func (r *ExplanationRepository) GetForUser(ctx context.Context, userID, id int64) (*models.Explanation, error) {
	var e models.Explanation
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error
	if err != nil {
		if dberrors.IsNotFound(err) {
			return nil, apperrors.ErrExplanationNotFound
		}
		return nil, fmt.Errorf("error retrieving explanation: %w", err)
	}
	return &e, nil
}

// DeleteForUser removes an explanation owned by the user
func (r *ExplanationRepository) DeleteForUser(ctx context.Context, userID, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Explanation{})
	if result.Error != nil {
		return fmt.Errorf("error deleting explanation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrExplanationNotFound
	}
	return nil
}

// Count returns the number of stored explanations
func (r *ExplanationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Explanation{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("error counting explanations: %w", err)
	}
	return n, nil
}

// CountSince returns the number of explanations created at or after since
func (r *ExplanationRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Explanation{}).Where("created_at >= ?", since).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("error counting recent explanations: %w", err)
	}
	return n, nil
}
