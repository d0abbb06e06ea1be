package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/afhamha/afhamha/internal/app/controllers"
	"github.com/afhamha/afhamha/internal/app/migrations"
	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/app/repositories"
	"github.com/afhamha/afhamha/internal/app/routes"
	"github.com/afhamha/afhamha/internal/app/services"
	"github.com/afhamha/afhamha/internal/db"
	"github.com/afhamha/afhamha/internal/middleware"
	"github.com/afhamha/afhamha/internal/pkg/auth"
	"github.com/afhamha/afhamha/internal/pkg/cache"
	"github.com/afhamha/afhamha/internal/pkg/llm"
)

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(context.Context, llm.Prompt) (string, error) {
	return p.reply, p.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type testAPI struct {
	router   *gin.Engine
	repos    *repositories.Repositories
	provider *stubProvider
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = 4

	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), &gorm.Config{
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

	repos := repositories.NewRepositories(gdb)
	lgr := zerolog.Nop()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "afhamha.test",
	})
	provider := &stubProvider{reply: `{"title":"Fractions","explanation":"a part of a whole","quiz":[{"question":"1/2 + 1/2?","options":["1","2"],"answer":0}]}`}

	explanations := services.NewExplanationService(repos,
		map[models.ExplanationMode]llm.Provider{models.ModeChat: provider},
		llm.NewPromptBuilder(3), cache.NewMemoryCache(10, time.Hour),
		services.ExplanationConfig{CostPerRequest: 1, PointsPerRequest: 10, HoursPerRequest: 0.25, TrialDays: 60, MaxQueryLength: 200},
		lgr)

	ctrls := routes.Controllers{
		Auth:        controllers.NewAuthController(services.NewAuthService(repos.UserRepository, repos.TokenRepository, jwtService, 2, lgr), lgr),
		User:        controllers.NewUserController(services.NewUserService(repos.UserRepository, 60, lgr)),
		Explanation: controllers.NewExplanationController(explanations, lgr),
		Curriculum:  controllers.NewCurriculumController(services.NewCurriculumService(repos.LessonRepository)),
		Admin:       controllers.NewAdminController(services.NewAdminService(repos, 60, lgr), lgr),
		Health:      controllers.NewHealthController(failingPinger{}),
	}

	router := gin.New()
	routes.SetupRouter(router, ctrls, middleware.NewAuthMiddleware(jwtService))

	return &testAPI{router: router, repos: repos, provider: provider}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (a *testAPI) register(t *testing.T, phone string) (token string, userID int64) {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"phone": phone, "password": "secret123", "name": "Huda", "studyYear": "9th_grade",
	})
	require.Equal(t, http.StatusCreated, code)

	var resp struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp.Token.AccessToken, resp.User.ID
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "+218911111111")

	code, env := api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"phone": "+218911111111", "password": "secret123", "name": "Huda", "studyYear": "9th_grade",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, _ = api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"phone": "+218922222222"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"phone": "+218911111111", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)

	var login struct {
		Token struct {
			RefreshToken string `json:"refreshToken"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	code, _ = api.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refreshToken": login.Token.RefreshToken})
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refreshToken": login.Token.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"phone": "+218911111111", "password": "nope12345"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register(t, "+218911111112")

	code, _ := api.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := api.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var profile struct {
		Trial struct {
			DaysLeft int  `json:"daysLeft"`
			Expired  bool `json:"expired"`
		} `json:"trial"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, 60, profile.Trial.DaysLeft)
	assert.False(t, profile.Trial.Expired)

	code, _ = api.do(t, http.MethodPut, "/api/v1/users/me", token, gin.H{"name": "Huda Ali", "studyYear": "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, http.MethodPut, "/api/v1/users/me", token, gin.H{"name": "Huda Ali", "studyYear": "8th_grade"})
	assert.Equal(t, http.StatusOK, code)
}

func TestExplanationEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register(t, "+218911111113")

	code, env := api.do(t, http.MethodPost, "/api/v1/explanations", token, gin.H{"subject": "math", "query": "what are fractions"})
	require.Equal(t, http.StatusCreated, code, env)

	var created struct {
		Explanation struct {
			ID   int64 `json:"id"`
			Quiz []struct {
				Answer string `json:"answer"`
			} `json:"quiz"`
		} `json:"explanation"`
		RemainingCredits int `json:"remainingCredits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 1, created.RemainingCredits)
	require.Len(t, created.Explanation.Quiz, 1)
	assert.Equal(t, "1", created.Explanation.Quiz[0].Answer)

	code, _ = api.do(t, http.MethodGet, "/api/v1/explanations", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodGet, "/api/v1/explanations/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodPost, "/api/v1/explanations", token, gin.H{"subject": "math", "query": "x", "mode": "voice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_001", env.Error.Code)

	api.provider.err = errors.New("upstream down")
	code, env = api.do(t, http.MethodPost, "/api/v1/explanations", token, gin.H{"subject": "math", "query": "new question"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "SRV_003", env.Error.Code)
	api.provider.err = nil

	code, _ = api.do(t, http.MethodPost, "/api/v1/explanations", token, gin.H{"subject": "math", "query": "second", "mode": "Chat"})
	require.Equal(t, http.StatusCreated, code, "mode is matched case-insensitively")

	code, env = api.do(t, http.MethodPost, "/api/v1/explanations", token, gin.H{"subject": "math", "query": "third"})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "USE_002", env.Error.Code)

	path := "/api/v1/explanations/" + jsonID(created.Explanation.ID)
	code, _ = api.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t)
	_, adminID := api.register(t, "+218911111114")
	studentToken, studentID := api.register(t, "+218911111115")
	require.NoError(t, api.repos.UserRepository.SetAdmin(context.Background(), adminID, true))

	// the role is read from the token, so the admin signs in again
	code, env := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"phone": "+218911111114", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	adminToken := login.Token.AccessToken

	code, _ = api.do(t, http.MethodGet, "/api/v1/admin/stats", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(t, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		Users  int64 `json:"users"`
		Admins int64 `json:"admins"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.Admins)

	userPath := "/api/v1/admin/users/" + jsonID(studentID)
	code, _ = api.do(t, http.MethodPost, userPath+"/credits", adminToken, gin.H{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, http.MethodPost, userPath+"/credits", adminToken, gin.H{"amount": int64(1) << 40})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodPost, userPath+"/credits", adminToken, gin.H{"amount": 5})
	require.Equal(t, http.StatusOK, code)
	var user struct {
		AICredits int `json:"aiCredits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, 7, user.AICredits)

	code, _ = api.do(t, http.MethodPut, "/api/v1/admin/users/"+jsonID(adminID)+"/admin", adminToken, gin.H{"isAdmin": false})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodDelete, userPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodGet, userPath, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCurriculumAndHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/api/v1/curriculum/years", "", nil)
	require.Equal(t, http.StatusOK, code)
	var years []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &years))
	assert.Len(t, years, 8)

	code, _ = api.do(t, http.MethodGet, "/api/v1/curriculum/years/9th_grade/subjects", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodGet, "/api/v1/curriculum/years/nope/references", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(t, http.MethodGet, "/api/v1/lessons?year=9th_grade", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = api.do(t, http.MethodGet, "/api/v1/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
