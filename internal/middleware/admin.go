package middleware

import (
	"net/http"

	"github.com/cozyss/snail-herald/internal/models"
	"github.com/cozyss/snail-herald/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware rejects non-admin callers. Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(ContextUserKey)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}
		user, ok := v.(*models.User)
		if !ok || user == nil || !user.IsAdmin {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}
