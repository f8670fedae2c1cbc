package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-school-api/internal/middleware"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
	"github.com/noah-isme/music-school-api/pkg/response"
)

// actorOrAbort resolves the caller and writes 401 when the request carries no identity.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
