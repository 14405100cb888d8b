package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const ContextRequestID = "request_id"

// RequestID memakai X-Request-ID dari terminal kalau ada, selain itu membuat uuid baru
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"request_id":  c.GetString(ContextRequestID),
			"employee_id": c.GetUint(ContextEmployeeID),
			"status":      c.Writer.Status(),
			"latency":     time.Since(start).String(),
			"client_ip":   c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Warnf("%s %s | %s", c.Request.Method, path, c.Errors.String())
			return
		}
		entry.Infof("%s %s", c.Request.Method, path)
	}
}
