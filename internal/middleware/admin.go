package middleware

import (
	"net/http"

	"growvest/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired rejects requests whose token does not carry the ADMIN
// role. Must run after AuthRequired, which sets the role in context.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
