package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository        *UserRepository
	ExplanationRepository *ExplanationRepository
	LessonRepository      *LessonRepository
	TokenRepository       *TokenRepository

	db *gorm.DB
}

// NewRepositories initializes all repositories
func NewRepositories(gdb *gorm.DB) *Repositories {
	return &Repositories{
		UserRepository:        NewUserRepository(gdb),
		ExplanationRepository: NewExplanationRepository(gdb),
		LessonRepository:      NewLessonRepository(gdb),
		TokenRepository:       NewTokenRepository(gdb),
		db:                    gdb,
	}
}

// Transaction runs fn with repositories bound to a single transaction
func (r *Repositories) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}
