package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"turcrm/internal/authz"
)

// roleFromCtx: role_id кладёт AuthMiddleware.
func roleFromCtx(c *gin.Context) (int, bool) {
	v, ok := c.Get("role_id")
	if !ok {
		return 0, false
	}
	roleID, ok := v.(int)
	return roleID, ok
}

// RequireRoles пропускает только перечисленные роли.
func RequireRoles(allowed ...int) gin.HandlerFunc {
	allowedSet := make(map[int]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleID, ok := roleFromCtx(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		if _, ok := allowedSet[roleID]; !ok {
			log.Printf("[authz][deny] role=%d %s %s", roleID, c.Request.Method, c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ReadOnlyGuard: роль audit может только читать.
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, _ := roleFromCtx(c)
		if !authz.IsReadOnly(roleID) {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		}
	}
}
