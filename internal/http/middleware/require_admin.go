package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/shared/apperr"
)

const HeaderAdminToken = "X-Admin-Token"

// RequireAdmin gates the admin surface with a shared token. An empty
// configured token disables the surface entirely rather than opening it up.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			Fail(c, apperr.ForbiddenErr("Admin access is disabled."))
			return
		}

		got := c.GetHeader(HeaderAdminToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			Fail(c, apperr.UnauthorizedErr("Invalid admin token."))
			return
		}

		c.Next()
	}
}
