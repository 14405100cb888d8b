package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// tableView: meja plus tab yang masih terbuka (kalau ada)
type tableView struct {
	models.Table
	Occupied  bool          `json:"occupied"`
	OpenOrder *models.Order `json:"open_order,omitempty"`
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{TableNumber: req.TableNumber, Status: "available"}
	if err := tc.DB.WithContext(c.Request.Context()).Create(&table).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s", table.TableNumber)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> seluruh meja beserta order pending-nya, dipakai terminal untuk memilih tab
func (tc *TableController) GetAllTables(c *gin.Context) {
	db := tc.DB.WithContext(c.Request.Context())

	var tables []models.Table
	if err := db.Order("id asc").Find(&tables).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	var open []models.Order
	if err := db.Where("status = ?", models.OrderStatusPending).Find(&open).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	byTable := make(map[uint]*models.Order, len(open))
	for i := range open {
		byTable[open[i].TableID] = &open[i]
	}

	views := make([]tableView, 0, len(tables))
	for _, table := range tables {
		order := byTable[table.ID]
		views = append(views, tableView{Table: table, Occupied: order != nil, OpenOrder: order})
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", views)
}

// GetTableByID -> detail satu meja
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := parseID(c, "table_id")
	if !ok {
		return
	}
	db := tc.DB.WithContext(c.Request.Context())

	var table models.Table
	if err := db.First(&table, id).Error; err != nil {
		respondServiceError(c, notFound(err))
		return
	}

	view := tableView{Table: table}
	var order models.Order
	err := db.Where("table_id = ? AND status = ?", id, models.OrderStatusPending).First(&order).Error
	if err == nil {
		view.Occupied = true
		view.OpenOrder = &order
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", view)
}
