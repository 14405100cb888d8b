package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// ReceiptController menyajikan data struk siap cetak. Rendering dan driver printer ada di luar service ini.
type ReceiptController struct {
	DB       *gorm.DB
	Invoices *services.InvoiceService
}

func NewReceiptController(db *gorm.DB, invoices *services.InvoiceService) *ReceiptController {
	return &ReceiptController{DB: db, Invoices: invoices}
}

type receiptLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type receiptData struct {
	ReceiptInfo struct {
		Number      string    `json:"number"`
		DateTime    time.Time `json:"date_time"`
		TableNumber string    `json:"table_number,omitempty"`
		Cashier     string    `json:"cashier"`
	} `json:"receipt_info"`
	Items        []receiptLine `json:"items"`
	PriceDetails struct {
		Subtotal string `json:"subtotal"`
		Discount string `json:"discount,omitempty"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	} `json:"price_details"`
	PaymentDetails struct {
		Method string `json:"method"`
		Status string `json:"status"`
	} `json:"payment_details"`
}

// GetReceipt -> data struk dari invoice yang sudah dibuat (nominal sudah diformat Rupiah)
func (rc *ReceiptController) GetReceipt(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	invoice, err := rc.Invoices.GetInvoice(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var data receiptData
	data.ReceiptInfo.Number = invoice.InvoiceNumber
	data.ReceiptInfo.DateTime = invoice.CreatedAt

	var cashier models.Employee
	if err := rc.DB.WithContext(ctx).First(&cashier, invoice.EmployeeID).Error; err == nil {
		data.ReceiptInfo.Cashier = cashier.Name
	}
	if invoice.OrderID != nil {
		var table models.Table
		err := rc.DB.WithContext(ctx).
			Joins("JOIN orders ON orders.table_id = tables.id").
			Where("orders.id = ?", *invoice.OrderID).
			First(&table).Error
		if err == nil {
			data.ReceiptInfo.TableNumber = table.TableNumber
		}
	}

	for _, item := range invoice.InvoiceItems {
		data.Items = append(data.Items, receiptLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: utils.FormatCurrencyIDR(item.UnitPrice),
			Subtotal:  utils.FormatCurrencyIDR(item.LineTotal()),
		})
	}

	data.PriceDetails.Subtotal = utils.FormatCurrencyIDR(invoice.Subtotal)
	if invoice.DiscountAmount.GreaterThan(decimal.Zero) {
		data.PriceDetails.Discount = utils.FormatCurrencyIDR(invoice.DiscountAmount)
	}
	data.PriceDetails.Tax = utils.FormatCurrencyIDR(invoice.TaxAmount)
	data.PriceDetails.Total = utils.FormatCurrencyIDR(invoice.TotalAmount)
	data.PaymentDetails.Method = invoice.PaymentMethod
	data.PaymentDetails.Status = invoice.PaymentStatus

	utils.RespondJSON(c, http.StatusOK, "Receipt data", data)
}
