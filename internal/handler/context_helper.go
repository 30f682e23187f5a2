package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/middleware"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/persistence"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
	"github.com/construtora/agenda-api/pkg/response"
)

// currentClaims writes a 401 and returns false when the request carries no claims.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func currentViewer(c *gin.Context) (models.Viewer, bool) {
	claims, ok := currentClaims(c)
	if !ok {
		return models.Viewer{}, false
	}
	return claims.Viewer(), true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func readMeta(c *gin.Context, source string) map[string]interface{} {
	middleware.SetSource(c, source)
	return middleware.ExtractMeta(c)
}

func writeMeta(c *gin.Context, result persistence.WriteResult) map[string]interface{} {
	middleware.SetSource(c, result.Source)
	middleware.SetDegraded(c, result.Degraded)
	return middleware.ExtractMeta(c)
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
