package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClonedErrorsMatchTemplate(t *testing.T) {
	err := fmt.Errorf("enroll: %w", Clone(ErrTrialRequired, "student s1 has no trial for c1"))

	assert.True(t, errors.Is(err, ErrTrialRequired))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusForbidden, FromError(err).Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(ErrTrialRequired))
	assert.False(t, Retryable(ErrInvalidRange))
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.True(t, Retryable(ErrRateLimited))
}
