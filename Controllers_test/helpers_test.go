package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
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
	"github.com/yeremiapane/restaurant-pos/utils"
)

var testSecret = []byte("controller-test-secret")

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	cashier models.Employee
	table   models.Table
	table2  models.Table
	buffet  models.BuffetPackage
	coke    models.Service
	massage models.Service
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	s := &testServer{
		t:       t,
		db:      db,
		cashier: models.Employee{Name: "Sari", CommissionRate: decimal.NewFromInt(2), Active: true},
		table:   models.Table{TableNumber: "A1"},
		table2:  models.Table{TableNumber: "A2"},
		buffet:  models.BuffetPackage{Name: "Buffet 199k", Price: decimal.NewFromInt(199000), Active: true},
		coke:    models.Service{Name: "Coke", Kind: models.ServiceKindFood, Price: decimal.NewFromInt(15000), Active: true},
		massage: models.Service{Name: "Foot Massage 60'", Kind: models.ServiceKindSpa, Price: decimal.NewFromInt(250000), CommissionRate: decimal.NewFromInt(10), Active: true},
	}
	for _, row := range []interface{}{&s.cashier, &s.table, &s.table2, &s.buffet, &s.coke, &s.massage} {
		require.NoError(t, db.Create(row).Error)
	}

	cfg := &config.Config{
		JWTSecret:     testSecret,
		TaxRate:       decimal.Zero,
		SnowflakeNode: 1,
		SettleTimeout: 5 * time.Second,
		AllowedOrigin: "*",
	}
	deps, err := router.BuildDeps(db, cfg, hub.New(), cache.NewMemoryCache("pos-test"))
	require.NoError(t, err)
	s.router = router.SetupRouter(cfg, deps)
	return s
}

func (s *testServer) token(role string) string {
	token, err := utils.GenerateToken(s.cashier.ID, role, testSecret, time.Hour)
	require.NoError(s.t, err)
	return token
}

// do mengirim request dengan token kasir; headers opsional
func (s *testServer) do(method, path string, payload interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	return s.doAs("cashier", method, path, payload, headers...)
}

func (s *testServer) doAs(role, method, path string, payload interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(s.t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, path, &body)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}

func requireAmount(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.NewFromInt(expected).Equal(actual), "expected %d, got %s", expected, actual)
}
