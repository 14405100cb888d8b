package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// ReceiptLoggerMiddleware mencatat setiap permintaan struk dari printer dispatch
func ReceiptLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.InfoLogger.Printf("Receipt requested for invoice ID: %s", c.Param("invoice_id"))

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			utils.InfoLogger.Printf("Receipt served for invoice ID: %s", c.Param("invoice_id"))
		} else {
			utils.ErrorLogger.Printf("Failed to serve receipt for invoice ID: %s (status %d)", c.Param("invoice_id"), c.Writer.Status())
		}
	}
}
