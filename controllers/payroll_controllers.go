package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type PayrollController struct {
	Payroll *services.PayrollService
}

func NewPayrollController(payroll *services.PayrollService) *PayrollController {
	return &PayrollController{Payroll: payroll}
}

// GetCommissions -> ?from=2024-01-01&to=2024-01-31 (inklusif), default bulan berjalan
func (pc *PayrollController) GetCommissions(c *gin.Context) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid from date, use YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid to date, use YYYY-MM-DD"))
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	summary, err := pc.Payroll.CommissionSummary(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Commission summary", summary)
}
