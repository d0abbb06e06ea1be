package repositories

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/afhamha/afhamha/internal/app/migrations"
	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/db"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
)

func newTestRepos(t *testing.T) (*Repositories, *gorm.DB) {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "repos.db"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, migrations.NewMigrator(gdb, migrations.Default()).Migrate(context.Background()))
	return NewRepositories(gdb), gdb
}

func createUser(t *testing.T, repos *Repositories, phone string, credits int) *models.User {
	t.Helper()
	u := &models.User{
		Phone:     phone,
		Password:  "hash",
		Name:      "Student " + phone,
		StudyYear: "9th_grade",
		AICredits: credits,
		JoinedAt:  time.Now(),
	}
	require.NoError(t, repos.UserRepository.Create(context.Background(), u))
	return u
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	u := createUser(t, repos, "+218910000001", 20)
	assert.NotZero(t, u.ID)

	got, err := repos.UserRepository.GetByPhone(ctx, "+218910000001")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 20, got.AICredits)

	_, err = repos.UserRepository.GetByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	dup := &models.User{Phone: "+218910000001", Password: "x", Name: "Dup", StudyYear: "9th_grade"}
	assert.ErrorIs(t, repos.UserRepository.Create(ctx, dup), apperrors.ErrPhoneAlreadyExists)
}

func TestUserRepositoryUpdateProfileAndAdmin(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000002", 0)

	require.NoError(t, repos.UserRepository.UpdateProfile(ctx, u.ID, "Salma", "1st_secondary"))
	require.NoError(t, repos.UserRepository.SetAdmin(ctx, u.ID, true))

	got, err := repos.UserRepository.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salma", got.Name)
	assert.Equal(t, "1st_secondary", got.StudyYear)
	assert.True(t, got.IsAdmin)

	assert.ErrorIs(t, repos.UserRepository.UpdateProfile(ctx, 999, "x", "y"), apperrors.ErrUserNotFound)
	assert.ErrorIs(t, repos.UserRepository.SetAdmin(ctx, 999, true), apperrors.ErrUserNotFound)
}

func TestUserRepositoryCredits(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000003", 2)

	left, err := repos.UserRepository.ConsumeCredits(ctx, u.ID, 1, 10, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	left, err = repos.UserRepository.ConsumeCredits(ctx, u.ID, 1, 10, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	_, err = repos.UserRepository.ConsumeCredits(ctx, u.ID, 1, 10, 0.25)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)

	got, err := repos.UserRepository.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AICredits)
	assert.Equal(t, 20, got.Points)
	assert.InDelta(t, 0.5, got.StudyHours, 1e-9)

	balance, err := repos.UserRepository.AddCredits(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	_, err = repos.UserRepository.AddCredits(ctx, 999, 5)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	_, err = repos.UserRepository.ConsumeCredits(ctx, 999, 1, 0, 0)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepositoryConsumeCreditsConcurrently(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000004", 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repos.UserRepository.ConsumeCredits(ctx, u.ID, 1, 1, 0); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	got, err := repos.UserRepository.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AICredits)
}

func TestUserRepositoryListAndStats(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createUser(t, repos, fmt.Sprintf("09100000%02d", i), i)
	}
	admin := createUser(t, repos, "0919999999", 100)
	require.NoError(t, repos.UserRepository.SetAdmin(ctx, admin.ID, true))

	users, total, err := repos.UserRepository.List(ctx, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	require.Len(t, users, 4)
	assert.Equal(t, admin.ID, users[0].ID)

	users, _, err = repos.UserRepository.List(ctx, 4, 4)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	stats, err := repos.UserRepository.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Users)
	assert.Equal(t, int64(1), stats.Admins)
	assert.Equal(t, int64(0+1+2+3+4+100), stats.Credits)
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	repos, gdb := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000005", 1)
	other := createUser(t, repos, "0910000006", 1)

	require.NoError(t, repos.ExplanationRepository.Create(ctx, &models.Explanation{UserID: u.ID, Title: "t", StudyYear: "9th_grade", Subject: "math", Query: "q", Content: "c", Mode: models.ModeChat}))
	require.NoError(t, repos.ExplanationRepository.Create(ctx, &models.Explanation{UserID: other.ID, Title: "t", StudyYear: "9th_grade", Subject: "math", Query: "q", Content: "c", Mode: models.ModeChat}))
	require.NoError(t, repos.TokenRepository.CreateToken(ctx, "tok-1", u.ID, time.Now().Add(time.Hour)))

	require.NoError(t, repos.UserRepository.Delete(ctx, u.ID))

	var explanations, tokens int64
	require.NoError(t, gdb.Model(&models.Explanation{}).Count(&explanations).Error)
	require.NoError(t, gdb.Model(&models.RefreshToken{}).Count(&tokens).Error)
	assert.Equal(t, int64(1), explanations)
	assert.Zero(t, tokens)

	assert.ErrorIs(t, repos.UserRepository.Delete(ctx, u.ID), apperrors.ErrUserNotFound)
}

func TestExplanationRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000007", 1)
	other := createUser(t, repos, "0910000008", 1)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := &models.Explanation{
			UserID:    u.ID,
			Title:     fmt.Sprintf("title %d", i),
			StudyYear: "9th_grade",
			Subject:   "science",
			Query:     "q",
			Content:   "c",
			Quiz:      []models.QuizQuestion{{Question: "Q", Options: []string{"a", "b"}, Answer: "a"}},
			Mode:      models.ModeChat,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repos.ExplanationRepository.Create(ctx, e))
	}

	items, total, err := repos.ExplanationRepository.ListByUser(ctx, u.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "title 2", items[0].Title)

	got, err := repos.ExplanationRepository.GetForUser(ctx, u.ID, items[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Quiz, 1)
	assert.Equal(t, []string{"a", "b"}, got.Quiz[0].Options)

	_, err = repos.ExplanationRepository.GetForUser(ctx, other.ID, items[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrExplanationNotFound)
	assert.ErrorIs(t, repos.ExplanationRepository.DeleteForUser(ctx, other.ID, items[0].ID), apperrors.ErrExplanationNotFound)

	require.NoError(t, repos.ExplanationRepository.DeleteForUser(ctx, u.ID, items[0].ID))
	n, err := repos.ExplanationRepository.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recent, err := repos.ExplanationRepository.CountSince(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), recent)
}

func TestLessonRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.LessonRepository.CreateBatch(ctx, []models.Lesson{
		{StudyYear: "9th_grade", Subject: "math", Name: "Fractions"},
		{StudyYear: "9th_grade", Subject: "science", Name: "Cells"},
		{StudyYear: "7th_grade", Subject: "math", Name: "Numbers"},
	}))
	require.NoError(t, repos.LessonRepository.CreateBatch(ctx, nil))

	all, err := repos.LessonRepository.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "7th_grade", all[0].StudyYear)

	math9, err := repos.LessonRepository.List(ctx, "9th_grade", "math")
	require.NoError(t, err)
	require.Len(t, math9, 1)
	assert.Equal(t, "Fractions", math9[0].Name)

	none, err := repos.LessonRepository.List(ctx, "8th_grade", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	n, err := repos.LessonRepository.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTokenRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000009", 1)
	tokens := repos.TokenRepository

	require.NoError(t, tokens.CreateToken(ctx, "live", u.ID, time.Now().Add(time.Hour)))
	require.NoError(t, tokens.CreateToken(ctx, "old", u.ID, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, tokens.CreateToken(ctx, "live", u.ID, time.Now().Add(time.Hour)), apperrors.ErrTokenInvalid)

	rt, err := tokens.GetToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, rt.UserID)

	_, err = tokens.GetToken(ctx, "old")
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	_, err = tokens.GetToken(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	require.NoError(t, tokens.RevokeToken(ctx, "live"))
	assert.ErrorIs(t, tokens.RevokeToken(ctx, "live"), apperrors.ErrTokenRevoked)
	assert.ErrorIs(t, tokens.RevokeToken(ctx, "missing"), apperrors.ErrTokenNotFound)
	_, err = tokens.GetToken(ctx, "live")
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	removed, err := tokens.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, tokens.CreateToken(ctx, "a", u.ID, time.Now().Add(time.Hour)))
	require.NoError(t, tokens.RevokeAllUserTokens(ctx, u.ID))
	_, err = tokens.GetToken(ctx, "a")
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestRepositoriesTransactionRollsBack(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	u := createUser(t, repos, "0910000010", 5)
	boom := errors.New("boom")

	err := repos.Transaction(ctx, func(ctx context.Context, tx *Repositories) error {
		if _, err := tx.UserRepository.ConsumeCredits(ctx, u.ID, 1, 10, 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repos.UserRepository.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AICredits)
	assert.Zero(t, got.Points)
}
