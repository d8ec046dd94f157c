package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/findmyteacher-api/internal/middleware"
	"github.com/noah-isme/findmyteacher-api/internal/models"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/response"
)

// sessionFromContext returns the request's viewer session, writing a 401 when
// the route was reached without one.
func sessionFromContext(c *gin.Context) (models.Session, bool) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Session{}, false
	}
	return *session, true
}
