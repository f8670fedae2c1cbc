package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

func writeError(t *testing.T, err error) (int, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	return w.Code, env
}

func TestErrorReportsRetryable(t *testing.T) {
	status, env := writeError(t, appErrors.ErrTrialRequired)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, appErrors.ErrTrialRequired.Code, env.Error.Code)
	assert.False(t, env.Error.Retryable)

	status, env = writeError(t, errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, env.Error.Retryable)

	status, env = writeError(t, appErrors.ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.True(t, env.Error.Retryable)
	assert.False(t, appErrors.ErrRateLimited.Retryable)
}
