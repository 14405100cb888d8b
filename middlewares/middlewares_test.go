package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/cache"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var testSecret = []byte("middleware-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, employeeID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(employeeID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func perform(r http.Handler, method, path, auth string, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(`{}`))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"employee_id": EmployeeID(c), "role": c.GetString(ContextRole)})
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/me", "Token abc", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/me", "Bearer not-a-jwt", nil).Code)

	w := perform(r, "GET", "/me", bearer(t, 7, "cashier"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"employee_id":7,"role":"cashier"}`, w.Body.String())
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/ws", WebSocketAuthMiddleware(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, "%d", EmployeeID(c))
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/ws", "", nil).Code)

	token, err := utils.GenerateToken(9, "waiter", testSecret, time.Hour)
	require.NoError(t, err)
	w := perform(r, "GET", "/ws?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.PATCH("/invoices/1/payment-status", AuthMiddleware(testSecret), RequireRole("manager"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusForbidden, perform(r, "PATCH", "/invoices/1/payment-status", bearer(t, 1, "cashier"), nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, "PATCH", "/invoices/1/payment-status", bearer(t, 1, "manager"), nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, "PATCH", "/invoices/1/payment-status", bearer(t, 1, "admin"), nil).Code)
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	var calls int32
	r := gin.New()
	r.POST("/invoices", AuthMiddleware(testSecret), Idempotency(cache.NewMemoryCache("pos"), "create_invoice", time.Hour), func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"invoice_id": n})
	})

	auth := bearer(t, 7, "cashier")
	first := perform(r, "POST", "/invoices", auth, map[string]string{"Idempotency-Key": "abc"})
	require.Equal(t, http.StatusCreated, first.Code)

	second := perform(r, "POST", "/invoices", auth, map[string]string{"Idempotency-Key": "abc"})
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// key sama dari karyawan lain adalah request berbeda
	other := perform(r, "POST", "/invoices", bearer(t, 8, "cashier"), map[string]string{"Idempotency-Key": "abc"})
	assert.Equal(t, http.StatusCreated, other.Code)
	assert.Empty(t, other.Header().Get("Idempotent-Replayed"))

	// tanpa header selalu diteruskan
	perform(r, "POST", "/invoices", auth, nil)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	var calls int32
	r := gin.New()
	r.POST("/invoices", AuthMiddleware(testSecret), Idempotency(cache.NewMemoryCache("pos"), "create_invoice", time.Hour), func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "bad"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	auth := bearer(t, 7, "cashier")
	assert.Equal(t, http.StatusBadRequest, perform(r, "POST", "/invoices", auth, map[string]string{"Idempotency-Key": "k"}).Code)
	assert.Equal(t, http.StatusCreated, perform(r, "POST", "/invoices", auth, map[string]string{"Idempotency-Key": "k"}).Code)
}

func TestIdempotencyPendingKeyConflicts(t *testing.T) {
	store := cache.NewMemoryCache("pos")
	r := gin.New()
	r.POST("/invoices", AuthMiddleware(testSecret), Idempotency(store, "create_invoice", time.Hour), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	key := store.GenerateKey("create_invoice", "7:busy")
	ok, err := store.SetNX(context.Background(), key, idempotencyPending, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	w := perform(r, "POST", "/invoices", bearer(t, 7, "cashier"), map[string]string{"Idempotency-Key": "busy"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(1, 2).RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, "GET", "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/ping", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, "GET", "/ping", "", nil).Code)
}

func TestRequestIDAndHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), LoggerMiddleware(), SecurityHeaders(), CORSMiddlewares("*"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := perform(r, "GET", "/ping", "", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, "GET", "/ping", "", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	assert.Equal(t, http.StatusNoContent, perform(r, "OPTIONS", "/ping", "", nil).Code)
}
