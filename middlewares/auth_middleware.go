package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Key context yang diisi setelah token diverifikasi
const (
	ContextEmployeeID = "employee_id"
	ContextRole       = "role"
)

// AuthMiddleware memverifikasi bearer token dari layanan auth. Token tidak pernah diterbitkan di sini.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("format token tidak valid"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		c.Set(ContextEmployeeID, claims.EmployeeID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// EmployeeID mengambil id karyawan yang sudah diverifikasi oleh AuthMiddleware
func EmployeeID(c *gin.Context) uint {
	return c.GetUint(ContextEmployeeID)
}
