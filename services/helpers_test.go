package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB membuat SQLite in-memory terpisah per test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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

type fixture struct {
	db         *gorm.DB
	store      *Store
	tickets    *TicketLedger
	orders     *OrderService
	settlement *SettlementService
	invoices   *InvoiceService
	payroll    *PayrollService

	table     models.Table
	table2    models.Table
	cashier   models.Employee
	therapist models.Employee
	buffet199 models.BuffetPackage
	buffet299 models.BuffetPackage
	coke      models.Service
	massage   models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	f := &fixture{
		db:        db,
		table:     models.Table{TableNumber: "T1"},
		table2:    models.Table{TableNumber: "T2"},
		cashier:   models.Employee{Name: "Sari", BaseSalary: decimal.NewFromInt(4000000), CommissionRate: decimal.NewFromInt(2), Active: true},
		therapist: models.Employee{Name: "Dewi", BaseSalary: decimal.NewFromInt(3500000), CommissionRate: decimal.NewFromInt(5), Active: true},
		buffet199: models.BuffetPackage{Name: "Buffet 199k", Price: decimal.NewFromInt(199000), Active: true},
		buffet299: models.BuffetPackage{Name: "Buffet 299k", Price: decimal.NewFromInt(299000), Active: true},
		coke:      models.Service{Name: "Coke", Kind: models.ServiceKindFood, Price: decimal.NewFromInt(15000), Active: true},
		massage:   models.Service{Name: "Foot Massage 60'", Kind: models.ServiceKindSpa, Price: decimal.NewFromInt(250000), CommissionRate: decimal.NewFromInt(10), Active: true},
	}
	for _, row := range []interface{}{&f.table, &f.table2, &f.cashier, &f.therapist, &f.buffet199, &f.buffet299, &f.coke, &f.massage} {
		require.NoError(t, db.Create(row).Error)
	}

	numbers, err := NewInvoiceNumberer(1)
	require.NoError(t, err)

	f.store = NewStore(db)
	f.tickets = NewTicketLedger(f.store)
	f.orders = NewOrderService(f.store, f.tickets, decimal.Zero)
	f.settlement = NewSettlementService(f.store, f.tickets, numbers, decimal.Zero, 5*time.Second)
	f.invoices = NewInvoiceService(f.store, numbers, decimal.Zero)
	f.payroll = NewPayrollService(f.store)
	return f
}

// openBuffet membuka order buffet di table dengan sejumlah tiket awal
func (f *fixture) openBuffet(t *testing.T, pkg models.BuffetPackage, tickets int) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		TableID: f.table.ID,
		Tickets: &TicketInput{PackageID: pkg.ID, Quantity: tickets},
	}, f.cashier.ID)
	require.NoError(t, err)
	return order
}

func (f *fixture) openALaCarte(t *testing.T, tableID uint, items ...ItemInput) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		TableID: tableID,
		Items:   items,
	}, f.cashier.ID)
	require.NoError(t, err)
	return order
}

func requireDecimal(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.NewFromInt(expected).Equal(actual), "expected %d, got %s", expected, actual)
}
