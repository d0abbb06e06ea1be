package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "STUDENT"
	RoleAdmin   RoleType = "ADMIN"
)

// ExplanationMode selects how the AI answer is produced
type ExplanationMode string

const (
	// ModeChat is a single stateless chat completion
	ModeChat ExplanationMode = "chat"
	// ModeAssistant runs a retrieval assistant backed by the curriculum books
	ModeAssistant ExplanationMode = "assistant"
)

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Explanation{},
		&Lesson{},
		&RefreshToken{},
	}
}
