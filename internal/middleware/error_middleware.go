package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/pkg/apperrors"
	"github.com/afhamha/afhamha/internal/pkg/logger"
)

// apiError maps a sentinel error onto a status, code and default message
type apiError struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
	// exposeCause puts the error text in the response when no CustomError message is set
	exposeCause bool
}

// Checked in order; the first match wins.
var apiErrors = []apiError{
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found", false},
	{apperrors.ErrExplanationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Explanation not found", false},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found", false},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid phone number or password", false},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired", false},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token", false},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token format", false},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found", false},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked", false},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied", false},
	{apperrors.ErrTrialExpired, http.StatusForbidden, dto.ErrorCodeTrialExpired, "Your free trial has ended", false},
	{apperrors.ErrInsufficientCredits, http.StatusPaymentRequired, dto.ErrorCodeInsufficientCredits, "Not enough AI credits", false},

	{apperrors.ErrPhoneAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Phone number already registered", false},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists", false},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Conflict", false},

	{apperrors.ErrInvalidPhone, http.StatusBadRequest, dto.ErrorCodeInvalidPhone, "Invalid phone number", false},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword, "Invalid password", true},
	{apperrors.ErrUnknownStudyYear, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Unknown study year", false},
	{apperrors.ErrUnknownSubject, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Subject is not taught in your study year", false},
	{apperrors.ErrUnsupportedMode, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Unsupported explanation mode", false},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed", false},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Bad request", false},

	{apperrors.ErrAIUnavailable, http.StatusBadGateway, dto.ErrorCodeExternalServiceError, "The AI service is unavailable, please try again", false},
}

// HandleAPIError writes the error response matching err
func HandleAPIError(c *gin.Context, err error) {
	for _, e := range apiErrors {
		if !errors.Is(err, e.target) {
			continue
		}

		message := e.message
		if msg, ok := apperrors.MessageOf(err); ok {
			message = msg
		} else if e.exposeCause {
			message = err.Error()
		}

		c.AbortWithStatusJSON(e.status, dto.NewErrorResponse(dto.NewErrorDetail(e.code, message)))
		return
	}

	logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
}
