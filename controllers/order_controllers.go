package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type OrderController struct {
	Orders     *services.OrderService
	Settlement *services.SettlementService
}

func NewOrderController(orders *services.OrderService, settlement *services.SettlementService) *OrderController {
	return &OrderController{Orders: orders, Settlement: settlement}
}

// orderResponse: invoice hanya terisi kalau request ikut men-settle order
type orderResponse struct {
	*models.Order
	Invoice *models.Invoice `json:"invoice,omitempty"`
}

type createOrderRequest struct {
	services.CreateOrderInput
	// bentuk datar yang sama dengan PUT
	BuffetPackageID *uint `json:"buffet_package_id"`
	BuffetQuantity  *int  `json:"buffet_quantity"`
}

// CreateOrder -> buka tab baru untuk meja
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body createOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	in := body.CreateOrderInput
	if in.Tickets == nil && (body.BuffetPackageID != nil || body.BuffetQuantity != nil) {
		if body.BuffetPackageID == nil || body.BuffetQuantity == nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("buffet_package_id and buffet_quantity must be sent together"))
			return
		}
		in.Tickets = &services.TicketInput{PackageID: *body.BuffetPackageID, Quantity: *body.BuffetQuantity}
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), in, middlewares.EmployeeID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders -> list order, bisa difilter status & table_id
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	filter := services.OrderFilter{Status: c.Query("status")}
	if raw := c.Query("table_id"); raw != "" {
		tableID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid table_id"))
			return
		}
		filter.TableID = uint(tableID)
	}

	orders, err := oc.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail order dengan item dan total tiket dari ledger
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := parseID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

type updateOrderRequest struct {
	Items           *[]services.ItemInput `json:"items"`
	Version         *uint                 `json:"version"`
	BuffetPackageID *uint                 `json:"buffet_package_id"`
	BuffetQuantity  *int                  `json:"buffet_quantity"`
	EmployeeID      *uint                 `json:"employee_id"`
	Notes           *string               `json:"notes"`
	Status          *string               `json:"status"`
	PaymentMethod   string                `json:"payment_method"`
}

// UpdateOrder -> partial update. buffet_quantity selalu ditambahkan (bukan nilai absolut),
// status "paid" menjalankan settlement dalam transaksi yang sama dengan perubahan lain.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "order_id")
	if !ok {
		return
	}

	var body updateOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Status != nil && *body.Status != models.OrderStatusPaid && *body.Status != models.OrderStatusPending {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("status must be %q or %q", models.OrderStatusPending, models.OrderStatusPaid))
		return
	}

	if body.Status != nil && *body.Status == models.OrderStatusPaid && body.PaymentMethod == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("payment_method: is required"))
		return
	}

	ctx := c.Request.Context()
	actor := middlewares.EmployeeID(c)
	in := services.UpdateOrderInput{
		Items:           body.Items,
		ExpectedVersion: body.Version,
		BuffetPackageID: body.BuffetPackageID,
		BuffetQuantity:  body.BuffetQuantity,
		EmployeeID:      body.EmployeeID,
		Notes:           body.Notes,
	}

	// status paid: perubahan dan settle satu transaksi; retry pada order yang sudah paid
	// mengembalikan invoice yang sama
	if body.Status != nil && *body.Status == models.OrderStatusPaid {
		result, err := oc.Settlement.UpdateAndSettle(ctx, oc.Orders, id, in, body.PaymentMethod, actor)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		order, err := oc.Orders.GetOrder(ctx, id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Order settled", orderResponse{Order: order, Invoice: result.Invoice})
		return
	}

	var (
		order *models.Order
		err   error
	)
	if in.HasChanges() {
		order, err = oc.Orders.Update(ctx, id, in, actor)
	} else if body.Status == nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("nothing to update"))
		return
	} else {
		order, err = oc.Orders.GetOrder(ctx, id)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// status pending tidak bisa membuka kembali order yang sudah paid
	if body.Status != nil && order.IsPaid() {
		respondServiceError(c, &services.ConflictError{Kind: services.ConflictOrderClosed, Message: "a paid order cannot be reopened", Order: order})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", orderResponse{Order: order})
}

// EditItems -> perubahan per baris (add/update/remove) yang aman dipakai beberapa terminal sekaligus
func (oc *OrderController) EditItems(c *gin.Context) {
	id, ok := parseID(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		Edits []services.ItemEdit `json:"edits" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.EditItems(c.Request.Context(), id, body.Edits, middlewares.EmployeeID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order items updated", order)
}

// SettleOrder -> 201 untuk invoice baru, 200 kalau order sudah pernah di-settle
func (oc *OrderController) SettleOrder(c *gin.Context) {
	id, ok := parseID(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := oc.Settlement.Settle(c.Request.Context(), id, body.PaymentMethod, middlewares.EmployeeID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result.AlreadySettled {
		utils.RespondJSON(c, http.StatusOK, "Order already settled", result.Invoice)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order settled", result.Invoice)
}
