package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("explain: %w", NewCustomError(ErrInsufficientCredits, "you have 0 credits left"))

	assert.True(t, errors.Is(err, ErrInsufficientCredits))
	msg, ok := MessageOf(err)
	assert.True(t, ok)
	assert.Equal(t, "you have 0 credits left", msg)
}

func TestMessageOfPlainError(t *testing.T) {
	_, ok := MessageOf(ErrUserNotFound)
	assert.False(t, ok)
}

func TestIsMatchesAnyOfList(t *testing.T) {
	err := NewValidationError("query is empty")
	assert.True(t, Is(err, ErrBadRequest, ErrValidationFailed))
	assert.False(t, Is(err, ErrBadRequest, ErrConflict))
}

func TestCustomErrorFallsBackToWrapped(t *testing.T) {
	assert.Equal(t, ErrTrialExpired.Error(), (&CustomError{Err: ErrTrialExpired}).Error())
	assert.Equal(t, "unknown error", (&CustomError{}).Error())
}
