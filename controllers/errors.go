package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// respondServiceError memetakan error service ke status HTTP di satu tempat
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &conflictErr):
		// kirim order terkini supaya terminal bisa rekonsiliasi
		utils.RespondErrorWithData(c, http.StatusConflict, err, gin.H{
			"conflict": conflictErr.Kind,
			"order":    conflictErr.Order,
		})
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondError(c, http.StatusGatewayTimeout, errors.New("request timed out, retry is safe"))
	default:
		utils.ErrorLogger.WithField("request_id", c.GetString(middlewares.ContextRequestID)).
			Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.Error(err)
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// notFound menerjemahkan record kosong dari query langsung ke ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}
