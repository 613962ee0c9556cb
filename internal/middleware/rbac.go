package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

// RequireRoles admits only sessions whose role is listed. Tenant scoping is
// left to the services; this only decides which portal a route belongs to.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}

	return func(c *gin.Context) {
		session, ok := Session(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[session.Role]; !ok {
			response.Error(c, appErrors.WithDetails(appErrors.ErrForbidden, "role not allowed for this page", map[string]interface{}{"roles": names}))
			c.Abort()
			return
		}
		c.Next()
	}
}
