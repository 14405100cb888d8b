package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// CustomerController: customer opsional, dipakai untuk customer_id di order dan invoice
type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	var customers []models.Customer
	query := cc.DB.WithContext(c.Request.Context()).Order("name asc")
	if q := c.Query("q"); q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}
	if err := query.Find(&customers).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req struct {
		Name  string  `json:"name" binding:"required"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customer := models.Customer{Name: req.Name, Phone: req.Phone}
	if err := cc.DB.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New customer created (ID=%d)", customer.ID)
	utils.RespondJSON(c, http.StatusCreated, "Customer created", customer)
}

func (cc *CustomerController) GetCustomerByID(c *gin.Context) {
	id, ok := parseID(c, "customer_id")
	if !ok {
		return
	}
	var customer models.Customer
	if err := cc.DB.WithContext(c.Request.Context()).First(&customer, id).Error; err != nil {
		respondServiceError(c, notFound(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer detail", customer)
}
