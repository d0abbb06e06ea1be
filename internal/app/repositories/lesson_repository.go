package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/app/models"
)

// LessonRepository reads the lesson catalog
type LessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository creates a new LessonRepository
func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns catalog lessons, optionally narrowed to a study year and subject
func (r *LessonRepository) List(ctx context.Context, studyYear, subject string) ([]models.Lesson, error) {
	q := r.db.WithContext(ctx).Model(&models.Lesson{})
	if studyYear != "" {
		q = q.Where("study_year = ?", studyYear)
	}
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}

	lessons := []models.Lesson{}
	if err := q.Order("study_year").Order("subject").Order("id").Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("error listing lessons: %w", err)
	}
	return lessons, nil
}

// Count returns the number of catalog lessons
func (r *LessonRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("error counting lessons: %w", err)
	}
	return n, nil
}

// CreateBatch inserts lessons in batches
func (r *LessonRepository) CreateBatch(ctx context.Context, lessons []models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(lessons, 100).Error; err != nil {
		return fmt.Errorf("error creating lessons: %w", err)
	}
	return nil
}
