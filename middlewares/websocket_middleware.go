package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// WebSocketAuthMiddleware: browser tidak bisa mengirim header Authorization saat upgrade,
// jadi token dibaca dari query string
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := utils.ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ContextEmployeeID, claims.EmployeeID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
