package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/cache"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"gorm.io/gorm"
)

// Deps adalah semua service yang dipakai controller, dibuat sekali di main (atau test)
type Deps struct {
	DB          *gorm.DB
	Catalog     services.CatalogReader
	Orders      *services.OrderService
	Settlement  *services.SettlementService
	Invoices    *services.InvoiceService
	Payroll     *services.PayrollService
	Hub         *hub.Hub
	Idempotency cache.Cache
}

// BuildDeps merakit service layer di atas satu store
func BuildDeps(db *gorm.DB, cfg *config.Config, h *hub.Hub, idem cache.Cache) (*Deps, error) {
	numbers, err := services.NewInvoiceNumberer(cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}

	store := services.NewStore(db)
	tickets := services.NewTicketLedger(store)

	return &Deps{
		DB:          db,
		Catalog:     services.NewCatalog(db),
		Orders:      services.NewOrderService(store, tickets, cfg.TaxRate),
		Settlement:  services.NewSettlementService(store, tickets, numbers, cfg.TaxRate, cfg.SettleTimeout),
		Invoices:    services.NewInvoiceService(store, numbers, cfg.TaxRate),
		Payroll:     services.NewPayrollService(store),
		Hub:         h,
		Idempotency: idem,
	}, nil
}

func SetupRouter(cfg *config.Config, d *Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigin))
	if cfg.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit())
	}

	orderCtrl := controllers.NewOrderController(d.Orders, d.Settlement)
	invoiceCtrl := controllers.NewInvoiceController(d.Invoices)
	receiptCtrl := controllers.NewReceiptController(d.DB, d.Invoices)
	catalogCtrl := controllers.NewCatalogController(d.Catalog)
	payrollCtrl := controllers.NewPayrollController(d.Payroll)
	hubCtrl := controllers.NewHubController(d.Hub, cfg.AllowedOrigin)
	tableCtrl := controllers.NewTableController(d.DB)
	customerCtrl := controllers.NewCustomerController(d.DB)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(cfg.JWTSecret), hubCtrl.Handler)

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		orders := api.Group("/orders")
		{
			orders.POST("", orderCtrl.CreateOrder)
			orders.GET("", orderCtrl.GetAllOrders)
			orders.GET("/:order_id", orderCtrl.GetOrderByID)
			orders.PUT("/:order_id", orderCtrl.UpdateOrder)
			orders.PATCH("/:order_id/items", orderCtrl.EditItems)
			orders.POST("/:order_id/settle", orderCtrl.SettleOrder)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", middlewares.Idempotency(d.Idempotency, "invoices", 24*time.Hour), invoiceCtrl.CreateInvoice)
			invoices.GET("/:invoice_id", invoiceCtrl.GetInvoiceByID)
			invoices.GET("/:invoice_id/receipt", middlewares.ReceiptLoggerMiddleware(), receiptCtrl.GetReceipt)
			invoices.PATCH("/:invoice_id/payment-status", middlewares.RequireRole("manager"), invoiceCtrl.UpdatePaymentStatus)
		}

		tables := api.Group("/tables")
		{
			tables.GET("", tableCtrl.GetAllTables)
			tables.GET("/:table_id", tableCtrl.GetTableByID)
			tables.POST("", middlewares.RequireRole("manager"), tableCtrl.CreateTable)
		}

		customers := api.Group("/customers")
		{
			customers.GET("", customerCtrl.GetAllCustomers)
			customers.POST("", customerCtrl.CreateCustomer)
			customers.GET("/:customer_id", customerCtrl.GetCustomerByID)
		}

		catalog := api.Group("/catalog")
		{
			catalog.GET("/packages", catalogCtrl.ListPackages)
			catalog.GET("/packages/:id", catalogCtrl.GetPackage)
			catalog.GET("/services", catalogCtrl.ListServices)
			catalog.GET("/services/:id", catalogCtrl.GetService)
		}

		api.GET("/payroll/commissions", middlewares.RequireRole("manager"), payrollCtrl.GetCommissions)
	}

	return r
}
