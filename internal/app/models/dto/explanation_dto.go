package dto

import (
	"time"

	"github.com/afhamha/afhamha/internal/app/models"
)

// ExplainRequest asks for an explanation of a question in one subject
type ExplainRequest struct {
	Subject string `json:"subject" binding:"required"`
	Query   string `json:"query" binding:"required"`
	Mode    string `json:"mode" binding:"omitempty,max=20"`
}

// ExplanationResponse is a stored explanation
type ExplanationResponse struct {
	ID        int64                 `json:"id"`
	Title     string                `json:"title"`
	StudyYear string                `json:"studyYear"`
	Subject   string                `json:"subject"`
	Query     string                `json:"query"`
	Content   string                `json:"content"`
	Quiz      []models.QuizQuestion `json:"quiz"`
	Mode      string                `json:"mode"`
	CreatedAt time.Time             `json:"createdAt"`
}

// ExplainResponse is the result of a new explanation request
type ExplainResponse struct {
	Explanation      ExplanationResponse `json:"explanation"`
	RemainingCredits int                 `json:"remainingCredits"`
	Cached           bool                `json:"cached"`
}

// ExplanationSummary is a list row without the full content
type ExplanationSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewExplanationResponse maps an explanation model onto its response
func NewExplanationResponse(e *models.Explanation) ExplanationResponse {
	quiz := []models.QuizQuestion(e.Quiz)
	if quiz == nil {
		quiz = []models.QuizQuestion{}
	}
	return ExplanationResponse{
		ID:        e.ID,
		Title:     e.Title,
		StudyYear: e.StudyYear,
		Subject:   e.Subject,
		Query:     e.Query,
		Content:   e.Content,
		Quiz:      quiz,
		Mode:      string(e.Mode),
		CreatedAt: e.CreatedAt,
	}
}

// NewExplanationSummary maps an explanation model onto a list row
func NewExplanationSummary(e *models.Explanation) ExplanationSummary {
	return ExplanationSummary{
		ID:        e.ID,
		Title:     e.Title,
		Subject:   e.Subject,
		Mode:      string(e.Mode),
		CreatedAt: e.CreatedAt,
	}
}
