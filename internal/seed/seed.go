package seed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/afhamha/afhamha/internal/app/curriculum"
	appModels "github.com/afhamha/afhamha/internal/app/models"
	appRepos "github.com/afhamha/afhamha/internal/app/repositories"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/auth"
	"github.com/afhamha/afhamha/internal/pkg/validation"
)

// AdminAccount is the account created on first start
type AdminAccount struct {
	Phone     string
	Password  string
	Name      string
	StudyYear string
}

// CreateDefaultData creates the admin account and the lesson catalog if they don't exist.
// Every step is attempted; the returned error joins all failures.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, admin AdminAccount, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (admin account, lessons)...")
	var finalErr error

	if err := createAdmin(ctx, repos.UserRepository, admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin user")
		finalErr = errors.Join(finalErr, err)
	}

	if err := createLessons(ctx, repos.LessonRepository, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error creating lesson catalog")
		finalErr = errors.Join(finalErr, err)
	}

	return finalErr
}

func createAdmin(ctx context.Context, userRepo *appRepos.UserRepository, admin AdminAccount, lgr zerolog.Logger) error {
	phone := validation.NormalizePhone(admin.Phone)
	if phone == "" || admin.Password == "" {
		lgr.Warn().Msg("No admin phone or password configured, skipping admin seed")
		return nil
	}

	_, err := userRepo.GetByPhone(ctx, phone)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return err
	}

	lgr.Info().Msg("Creating default admin user...")
	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	studyYear := admin.StudyYear
	if !curriculum.IsValidYear(studyYear) {
		studyYear = curriculum.StudyYears()[len(curriculum.StudyYears())-1].Key
	}

	user := &appModels.User{
		Phone:     phone,
		Password:  hashedPassword,
		Name:      admin.Name,
		StudyYear: studyYear,
		IsAdmin:   true,
		JoinedAt:  time.Now(),
	}
	if err := userRepo.Create(ctx, user); err != nil && !errors.Is(err, apperrors.ErrPhoneAlreadyExists) {
		return err
	}

	lgr.Info().Int64("userID", user.ID).Msg("Default admin user created")
	return nil
}

func createLessons(ctx context.Context, lessonRepo *appRepos.LessonRepository, lgr zerolog.Logger) error {
	count, err := lessonRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	catalog := curriculum.Lessons()
	lessons := make([]appModels.Lesson, 0, len(catalog))
	for _, l := range catalog {
		lessons = append(lessons, appModels.Lesson{
			StudyYear:   l.StudyYear,
			Subject:     l.Subject,
			Category:    l.Category,
			Name:        l.Name,
			Description: l.Description,
		})
	}

	if err := lessonRepo.CreateBatch(ctx, lessons); err != nil {
		return err
	}
	lgr.Info().Int("lessons", len(lessons)).Msg("Lesson catalog created")
	return nil
}
