package dto

import "github.com/afhamha/afhamha/internal/app/models"

// LessonFilterRequest filters the lesson catalog
type LessonFilterRequest struct {
	StudyYear string `form:"year"`
	Subject   string `form:"subject"`
}

// LessonResponse is a catalog lesson
type LessonResponse struct {
	ID          int64  `json:"id"`
	StudyYear   string `json:"studyYear"`
	Subject     string `json:"subject"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewLessonResponse maps a lesson model onto its response
func NewLessonResponse(l *models.Lesson) LessonResponse {
	return LessonResponse{
		ID:          l.ID,
		StudyYear:   l.StudyYear,
		Subject:     l.Subject,
		Category:    l.Category,
		Name:        l.Name,
		Description: l.Description,
	}
}
