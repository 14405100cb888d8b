package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-pos/cache"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndIntegration menguji flow utama:
// 1. Terminal A tersambung ke /ws
// 2. Terminal B membuka tab buffet dan menambah item lewat HTTP
// 3. Relay outbox meneruskan event ke terminal A
// 4. Tab di-settle, terminal A menerima order.settled
func TestEndToEndIntegration(t *testing.T) {
	db := setupTestDB(t)
	cfg := &config.Config{
		JWTSecret:     []byte("integration-secret"),
		TaxRate:       decimal.Zero,
		SnowflakeNode: 2,
		SettleTimeout: 5 * time.Second,
		AllowedOrigin: "*",
	}
	terminals := hub.New()
	deps, err := router.BuildDeps(db, cfg, terminals, cache.NewMemoryCache("pos-it"))
	require.NoError(t, err)

	server := httptest.NewServer(router.SetupRouter(cfg, deps))
	defer server.Close()
	relay := services.NewOutboxRelay(db, time.Second, terminals)

	token, err := utils.GenerateToken(1, "cashier", cfg.JWTSecret, time.Hour)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	terminalA, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer terminalA.Close()
	require.Eventually(t, func() bool { return terminals.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	order := createOrderTest(t, server.URL, token)
	relayAndExpect(t, relay, terminalA, services.TopicOrderCreated)

	addItemsTest(t, server.URL, token, order.ID)
	relayAndExpect(t, relay, terminalA, services.TopicOrderUpdated)

	invoice := settleOrderTest(t, server.URL, token, order.ID)
	assert.True(t, decimal.NewFromInt(443000).Equal(invoice.TotalAmount), invoice.TotalAmount.String())
	relayAndExpect(t, relay, terminalA, services.TopicOrderSettled, services.TopicInvoiceCreated)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	seed := []interface{}{
		&models.Employee{Name: "Sari", CommissionRate: decimal.NewFromInt(2), Active: true},
		&models.Table{TableNumber: "A1", Status: "available"},
		&models.BuffetPackage{Name: "Buffet 199k", Price: decimal.NewFromInt(199000), Active: true},
		&models.Service{Name: "Coke", Kind: models.ServiceKindFood, Price: decimal.NewFromInt(15000), Active: true},
	}
	for _, row := range seed {
		require.NoError(t, db.Create(row).Error)
	}
	return db
}

func call(t *testing.T, method, url, token string, payload interface{}, out interface{}) int {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func createOrderTest(t *testing.T, baseURL, token string) models.Order {
	var order models.Order
	status := call(t, http.MethodPost, baseURL+"/api/orders", token, map[string]interface{}{
		"table_id":          1,
		"buffet_package_id": 1,
		"buffet_quantity":   2,
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	return order
}

func addItemsTest(t *testing.T, baseURL, token string, orderID uint) {
	var order models.Order
	status := call(t, http.MethodPut, fmt.Sprintf("%s/api/orders/%d", baseURL, orderID), token, map[string]interface{}{
		"items": []map[string]interface{}{{"service_id": 1, "quantity": 3}},
	}, &order)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.NewFromInt(443000).Equal(order.TotalAmount))
}

func settleOrderTest(t *testing.T, baseURL, token string, orderID uint) models.Invoice {
	var invoice models.Invoice
	status := call(t, http.MethodPost, fmt.Sprintf("%s/api/orders/%d/settle", baseURL, orderID), token, map[string]interface{}{
		"payment_method": "cash",
	}, &invoice)
	require.Equal(t, http.StatusCreated, status)
	return invoice
}

func relayAndExpect(t *testing.T, relay *services.OutboxRelay, conn *websocket.Conn, topics ...string) {
	t.Helper()
	published, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(topics), published)

	for _, topic := range topics {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg hub.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, topic, msg.Event)
	}
}
