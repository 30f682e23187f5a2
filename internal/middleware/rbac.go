package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
	"github.com/construtora/agenda-api/pkg/response"
)

// Self lets a caller through when the :id route parameter is their own user id.
const Self = "SELF"

// RBAC enforces permission-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	permissions := make(map[models.Permission]struct{}, len(allowed))
	for _, a := range allowed {
		if a == Self {
			allowSelf = true
			continue
		}
		permissions[models.Permission(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := permissions[claims.Permission]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequirePermissions is a helper that accepts a list of permissions.
func RequirePermissions(perms ...models.Permission) gin.HandlerFunc {
	allowed := make([]string, len(perms))
	for i, p := range perms {
		allowed[i] = string(p)
	}
	return RBAC(allowed...)
}
