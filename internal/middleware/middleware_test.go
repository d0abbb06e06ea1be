package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleAPIErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("get: %w", apperrors.ErrExplanationNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.NewValidationError("query must not be empty"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrUnknownSubject, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{apperrors.NewForbiddenError("no"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrTrialExpired, http.StatusForbidden, dto.ErrorCodeTrialExpired},
		{apperrors.ErrInsufficientCredits, http.StatusPaymentRequired, dto.ErrorCodeInsufficientCredits},
		{apperrors.ErrPhoneAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{fmt.Errorf("%w: %w", apperrors.ErrAIUnavailable, fmt.Errorf("timeout")), http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleAPIErrorUsesCustomMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, apperrors.NewValidationError("query must be at most 10 characters"))

	assert.Equal(t, "query must be at most 10 characters", decodeError(t, w).Error.Message)
}

func newAuthRouter(jwtService *auth.JWTService) *gin.Engine {
	m := NewAuthMiddleware(jwtService)
	r := gin.New()
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	r.GET("/admin", m.JWTAuth(), m.AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "test",
	})
	router := newAuthRouter(jwtService)

	student := &models.User{ID: 7, Phone: "+218910000000", StudyYear: "9th_grade"}
	admin := &models.User{ID: 8, Phone: "+218910000001", StudyYear: "9th_grade", IsAdmin: true}
	studentPair, err := jwtService.GenerateTokenPair(student)
	require.NoError(t, err)
	adminPair, err := jwtService.GenerateTokenPair(admin)
	require.NoError(t, err)

	do := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do("/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do("/me", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do("/me", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, w).Error.Code)

	w = do("/me", "Bearer "+studentPair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	w = do("/admin", "Bearer "+studentPair.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do("/admin", "Bearer "+adminPair.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestBindJSONRejectsInvalidBody(t *testing.T) {
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req dto.AddCreditsRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"amount":-1}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, decodeError(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"amount":5}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	lgr := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(lgr), Recovery(lgr))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.NoRoute(NotFound())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"path":"/boom"`)
	assert.Contains(t, buf.String(), `"status":500`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
