package models

import "time"

// Lesson is a read-only catalog entry of the curriculum
type Lesson struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	StudyYear   string    `json:"studyYear" gorm:"size:40;not null;index:idx_lessons_year_subject"`
	Subject     string    `json:"subject" gorm:"size:100;not null;index:idx_lessons_year_subject"`
	Category    string    `json:"category" gorm:"size:100"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
}
