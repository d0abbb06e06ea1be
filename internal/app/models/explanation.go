package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizQuestion is one multiple-choice question attached to an explanation
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Explanation is a stored AI answer. It is written once and removed with its owner.
type Explanation struct {
	ID        int64                             `json:"id" gorm:"primaryKey"`
	UserID    int64                             `json:"userId" gorm:"not null;index"`
	Title     string                            `json:"title" gorm:"size:200;not null"`
	StudyYear string                            `json:"studyYear" gorm:"size:40;not null"`
	Subject   string                            `json:"subject" gorm:"size:100;not null;index"`
	Query     string                            `json:"query" gorm:"type:text;not null"`
	Content   string                            `json:"content" gorm:"type:text;not null"`
	Quiz      datatypes.JSONSlice[QuizQuestion] `json:"quiz"`
	Mode      ExplanationMode                   `json:"mode" gorm:"size:20;not null;default:chat"`
	CreatedAt time.Time                         `json:"createdAt" gorm:"index"`
}
