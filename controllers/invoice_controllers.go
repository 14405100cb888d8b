package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type InvoiceController struct {
	Invoices *services.InvoiceService
}

func NewInvoiceController(invoices *services.InvoiceService) *InvoiceController {
	return &InvoiceController{Invoices: invoices}
}

// CreateInvoice -> invoice langsung tanpa order (penjualan non-tab)
func (ic *InvoiceController) CreateInvoice(c *gin.Context) {
	var body services.CreateInvoiceInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := ic.Invoices.CreateInvoice(c.Request.Context(), body, middlewares.EmployeeID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Invoice created", invoice)
}

func (ic *InvoiceController) GetInvoiceByID(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}
	invoice, err := ic.Invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invoice detail", invoice)
}

// UpdatePaymentStatus -> koreksi status pembayaran oleh operator
func (ic *InvoiceController) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}

	var body struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := ic.Invoices.UpdatePaymentStatus(c.Request.Context(), id, body.PaymentStatus, middlewares.EmployeeID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment status updated", invoice)
}
