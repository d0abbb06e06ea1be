package services

import (
	"context"
	"fmt"

	"github.com/afhamha/afhamha/internal/app/curriculum"
	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/repositories"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
)

// CurriculumService exposes the static curriculum and the lesson catalog
type CurriculumService struct {
	lessonRepo *repositories.LessonRepository
}

// NewCurriculumService creates a new CurriculumService
func NewCurriculumService(lessonRepo *repositories.LessonRepository) *CurriculumService {
	return &CurriculumService{lessonRepo: lessonRepo}
}

// Years returns every study year
func (s *CurriculumService) Years() []curriculum.StudyYear {
	return curriculum.StudyYears()
}

// Subjects returns the subjects taught in a study year
func (s *CurriculumService) Subjects(year string) ([]curriculum.Subject, error) {
	subjects, err := curriculum.Subjects(year)
	if err != nil {
		return nil, unknownYear(year)
	}
	return subjects, nil
}

// References returns the reference book metadata of a study year
func (s *CurriculumService) References(year string) ([]curriculum.ReferenceFile, error) {
	if !curriculum.IsValidYear(year) {
		return nil, unknownYear(year)
	}
	return curriculum.ReferenceFiles(year), nil
}

// Lessons returns catalog lessons, optionally filtered by year and subject
func (s *CurriculumService) Lessons(ctx context.Context, filter *dto.LessonFilterRequest) ([]dto.LessonResponse, error) {
	if filter.StudyYear != "" && !curriculum.IsValidYear(filter.StudyYear) {
		return nil, unknownYear(filter.StudyYear)
	}

	lessons, err := s.lessonRepo.List(ctx, filter.StudyYear, filter.Subject)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.LessonResponse, 0, len(lessons))
	for i := range lessons {
		resp = append(resp, dto.NewLessonResponse(&lessons[i]))
	}
	return resp, nil
}

func unknownYear(year string) error {
	return apperrors.NewCustomError(apperrors.ErrUnknownStudyYear, fmt.Sprintf("unknown study year %q", year))
}
