package middlewares

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/cache"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const idempotencyPending = "__pending__"

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency memutar ulang respons sukses untuk Idempotency-Key yang sama
// (terminal yang retry karena jaringan putus tidak membuat invoice kedua).
// Request tanpa header diteruskan apa adanya.
func Idempotency(store cache.Cache, operation string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := store.GenerateKey(operation, fmt.Sprintf("%d:%s", c.GetUint(ContextEmployeeID), key))

		cached, err := store.Get(ctx, cacheKey)
		if err != nil {
			utils.ErrorLogger.Printf("Idempotency cache unavailable: %v", err)
			c.Next()
			return
		}
		if cached == idempotencyPending {
			utils.RespondError(c, http.StatusConflict, errors.New("request with this Idempotency-Key is still in progress"))
			c.Abort()
			return
		}
		if cached != "" {
			var resp cachedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.Header("Idempotent-Replayed", "true")
				c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
				c.Abort()
				return
			}
		}

		acquired, err := store.SetNX(ctx, cacheKey, idempotencyPending, time.Minute)
		if err != nil {
			utils.ErrorLogger.Printf("Idempotency cache unavailable: %v", err)
			c.Next()
			return
		}
		if !acquired {
			utils.RespondError(c, http.StatusConflict, errors.New("request with this Idempotency-Key is still in progress"))
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status < 200 || status >= 300 {
			// gagal: boleh dicoba lagi dengan key yang sama
			if err := store.Del(ctx, cacheKey); err != nil {
				utils.ErrorLogger.Printf("Failed to release idempotency key: %v", err)
			}
			return
		}

		payload, _ := json.Marshal(cachedResponse{Status: status, Body: recorder.body.Bytes()})
		if err := store.Set(ctx, cacheKey, string(payload), ttl); err != nil {
			utils.ErrorLogger.Printf("Failed to store idempotent response: %v", err)
		}
	}
}
