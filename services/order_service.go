package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errTableTaken dipakai di dalam transaksi saat insert order kena unique constraint meja
var errTableTaken = errors.New("table already has a pending order")

// TicketInput adalah top-up tiket buffet (selalu additive)
type TicketInput struct {
	PackageID uint `json:"buffet_package_id"`
	Quantity  int  `json:"buffet_quantity"`
}

type CreateOrderInput struct {
	TableID    uint         `json:"table_id"`
	Kind       string       `json:"kind"`
	EmployeeID uint         `json:"employee_id"`
	CustomerID *uint        `json:"customer_id"`
	Notes      string       `json:"notes"`
	Items      []ItemInput  `json:"items"`
	Tickets    *TicketInput `json:"tickets"`
}

// UpdateOrderInput adalah partial update. Field nil tidak disentuh.
type UpdateOrderInput struct {
	Items           *[]ItemInput
	ExpectedVersion *uint
	BuffetPackageID *uint
	BuffetQuantity  *int
	EmployeeID      *uint
	Notes           *string
}

// HasChanges false berarti tidak ada perubahan pada order (misalnya hanya status)
func (in UpdateOrderInput) HasChanges() bool {
	return in.Items != nil || in.BuffetQuantity != nil || in.BuffetPackageID != nil ||
		in.EmployeeID != nil || in.Notes != nil
}

type OrderFilter struct {
	Status  string
	TableID uint
}

// OrderService mengelola order yang masih terbuka. Semua perubahan berjalan dalam
// satu transaksi yang mengunci baris order lalu menghitung ulang total dari ledger.
type OrderService struct {
	store   *Store
	tickets *TicketLedger
	taxRate decimal.Decimal
}

func NewOrderService(store *Store, tickets *TicketLedger, taxRate decimal.Decimal) *OrderService {
	return &OrderService{store: store, tickets: tickets, taxRate: taxRate}
}

// CreateOrder membuka tab baru untuk meja. Gagal dengan TableAlreadyOpen kalau meja masih punya order pending.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, actor uint) (*models.Order, error) {
	if in.TableID == 0 {
		return nil, invalid("table_id", "is required")
	}
	if in.EmployeeID == 0 {
		in.EmployeeID = actor
	}
	if in.Kind == "" {
		in.Kind = models.OrderKindALaCarte
		if in.Tickets != nil {
			in.Kind = models.OrderKindBuffet
		}
	}
	if in.Kind != models.OrderKindBuffet && in.Kind != models.OrderKindALaCarte {
		return nil, invalid("kind", "must be %q or %q", models.OrderKindBuffet, models.OrderKindALaCarte)
	}
	if in.Tickets != nil && in.Kind != models.OrderKindBuffet {
		return nil, invalid("tickets", "only buffet orders carry tickets")
	}

	var orderID uint
	err := s.store.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, in.TableID, in.EmployeeID, in.CustomerID); err != nil {
			return err
		}

		existing, err := openOrderForTable(tx, in.TableID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ConflictError{
				Kind:    ConflictTableAlreadyOpen,
				Message: fmt.Sprintf("table %d already has pending order %d", in.TableID, existing.ID),
				Order:   existing,
			}
		}

		now := time.Now()
		tableID := in.TableID
		order := &models.Order{
			TableID:     in.TableID,
			OpenTableID: &tableID,
			Kind:        in.Kind,
			Status:      models.OrderStatusPending,
			EmployeeID:  in.EmployeeID,
			CustomerID:  in.CustomerID,
			Notes:       in.Notes,
			Subtotal:    decimal.Zero,
			TaxAmount:   decimal.Zero,
			TotalAmount: decimal.Zero,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(order).Error; err != nil {
			if isDuplicate(err) {
				return errTableTaken
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		catalog := catalogFor(tx)
		if len(in.Items) > 0 {
			if err := newItemLedger(ctx, tx, catalog, actor).Replace(order.ID, in.Items); err != nil {
				return err
			}
		}
		if in.Tickets != nil {
			if _, err := s.tickets.Append(ctx, tx, catalog, order, in.Tickets.PackageID, in.Tickets.Quantity, actor); err != nil {
				return err
			}
		}
		if err := s.recalcTotals(tx, order, 1); err != nil {
			return err
		}
		if err := recordEvent(tx, TopicOrderCreated, order.ID, order); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})

	if errors.Is(err, errTableTaken) {
		// terminal lain menang di insert yang sama
		existing, loadErr := openOrderForTable(s.store.DB(ctx), in.TableID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, &ConflictError{
			Kind:    ConflictTableAlreadyOpen,
			Message: fmt.Sprintf("table %d already has a pending order", in.TableID),
			Order:   existing,
		}
	}
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": orderID,
		"table_id": in.TableID,
		"kind":     in.Kind,
	}).Info("Order created")
	return s.GetOrder(ctx, orderID)
}

// ReplaceItems mengganti seluruh daftar item. expectedVersion (opsional) menolak
// penulisan berdasarkan snapshot lama dengan StaleOrder.
func (s *OrderService) ReplaceItems(ctx context.Context, orderID uint, items []ItemInput, expectedVersion *uint, actor uint) (*models.Order, error) {
	return s.Update(ctx, orderID, UpdateOrderInput{Items: &items, ExpectedVersion: expectedVersion}, actor)
}

// EditItems menerapkan add/update/remove per baris tanpa cek versi
func (s *OrderService) EditItems(ctx context.Context, orderID uint, edits []ItemEdit, actor uint) (*models.Order, error) {
	if len(edits) == 0 {
		return nil, invalid("edits", "at least one edit is required")
	}
	err := s.mutate(ctx, orderID, nil, func(tx *gorm.DB, order *models.Order) error {
		return newItemLedger(ctx, tx, catalogFor(tx), actor).Edit(order.ID, edits)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// AddTickets menambah tiket lalu menghitung ulang total order
func (s *OrderService) AddTickets(ctx context.Context, orderID, packageID uint, quantity int, actor uint) (*models.Order, error) {
	return s.Update(ctx, orderID, UpdateOrderInput{BuffetPackageID: &packageID, BuffetQuantity: &quantity}, actor)
}

func (s *OrderService) ReassignEmployee(ctx context.Context, orderID, employeeID uint, actor uint) (*models.Order, error) {
	return s.Update(ctx, orderID, UpdateOrderInput{EmployeeID: &employeeID}, actor)
}

// Update menerapkan semua perubahan pada input dalam satu transaksi
func (s *OrderService) Update(ctx context.Context, orderID uint, in UpdateOrderInput, actor uint) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, orderID, in.ExpectedVersion, func(tx *gorm.DB, order *models.Order) error {
		return s.apply(ctx, tx, order, in, actor)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

func (in UpdateOrderInput) validate() error {
	if !in.HasChanges() {
		return invalid("", "nothing to update")
	}
	if in.BuffetQuantity == nil && in.BuffetPackageID != nil {
		return invalid("buffet_quantity", "is required when buffet_package_id is given")
	}
	return nil
}

// apply menulis perubahan input ke order yang sudah dikunci
func (s *OrderService) apply(ctx context.Context, tx *gorm.DB, order *models.Order, in UpdateOrderInput, actor uint) error {
	catalog := catalogFor(tx)

	if in.Items != nil {
		if err := newItemLedger(ctx, tx, catalog, actor).Replace(order.ID, *in.Items); err != nil {
			return err
		}
	}

	if in.BuffetQuantity != nil {
		packageID := order.BuffetPackageID
		if in.BuffetPackageID != nil {
			packageID = in.BuffetPackageID
		}
		if packageID == nil {
			return invalid("buffet_package_id", "order has no buffet package yet")
		}
		if _, err := s.tickets.Append(ctx, tx, catalog, order, *packageID, *in.BuffetQuantity, actor); err != nil {
			return err
		}
		if order.Kind != models.OrderKindBuffet {
			order.Kind = models.OrderKindBuffet
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("kind", order.Kind).Error; err != nil {
				return fmt.Errorf("failed to update order kind: %w", err)
			}
		}
	}

	updates := map[string]interface{}{}
	if in.EmployeeID != nil {
		if err := activeEmployee(tx, *in.EmployeeID); err != nil {
			return err
		}
		updates["employee_id"] = *in.EmployeeID
		order.EmployeeID = *in.EmployeeID
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
		order.Notes = *in.Notes
	}
	if len(updates) > 0 {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
	}
	return nil
}

// mutate mengunci order, memastikan masih pending dan versi cocok, menjalankan fn,
// lalu menghitung ulang total dan mencatat event order.updated
func (s *OrderService) mutate(ctx context.Context, orderID uint, expectedVersion *uint, fn func(tx *gorm.DB, order *models.Order) error) error {
	err := s.store.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsPaid() {
			return &ConflictError{Kind: ConflictOrderClosed, Message: fmt.Sprintf("order %d is already settled", order.ID), Order: order}
		}
		return s.mutateLocked(tx, order, expectedVersion, fn)
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("order_id", orderID).Info("Order updated")
	return nil
}

// mutateLocked: order sudah dikunci dan masih pending
func (s *OrderService) mutateLocked(tx *gorm.DB, order *models.Order, expectedVersion *uint, fn func(tx *gorm.DB, order *models.Order) error) error {
	if expectedVersion != nil && *expectedVersion != order.Version {
		current, err := loadOrder(tx, order.ID)
		if err != nil {
			return err
		}
		return &ConflictError{
			Kind:    ConflictStaleOrder,
			Message: fmt.Sprintf("order %d is at version %d, not %d", order.ID, order.Version, *expectedVersion),
			Order:   current,
		}
	}

	if err := fn(tx, order); err != nil {
		return err
	}
	if err := s.recalcTotals(tx, order, order.Version+1); err != nil {
		return err
	}
	return recordEvent(tx, TopicOrderUpdated, order.ID, order)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return loadOrder(s.store.DB(ctx), orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.store.DB(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.TableID != 0 {
		q = q.Where("table_id = ?", filter.TableID)
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	for i := range orders {
		deriveTickets(&orders[i])
	}
	return orders, nil
}

// recalcTotals menghitung subtotal dari ledger tiket + proyeksi item, lalu menyimpan
// total bersama versi baru
func (s *OrderService) recalcTotals(tx *gorm.DB, order *models.Order, version uint) error {
	subtotal, err := s.ledgerSubtotal(tx, order.ID)
	if err != nil {
		return err
	}
	tax := Tax(subtotal, s.taxRate)
	now := time.Now()

	err = tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"subtotal":     subtotal,
		"tax_amount":   tax,
		"total_amount": subtotal.Add(tax),
		"version":      version,
		"updated_at":   now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to persist order totals: %w", err)
	}

	order.Subtotal = subtotal
	order.TaxAmount = tax
	order.TotalAmount = subtotal.Add(tax)
	order.Version = version
	order.UpdatedAt = now
	return nil
}

// ledgerSubtotal = ticketRevenue + sum(item.unit_price * item.quantity)
func (s *OrderService) ledgerSubtotal(tx *gorm.DB, orderID uint) (decimal.Decimal, error) {
	summary, err := s.tickets.Summary(tx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to read order items: %w", err)
	}
	return summary.Revenue.Add(itemRevenue(items)), nil
}

func (s *OrderService) checkReferences(tx *gorm.DB, tableID, employeeID uint, customerID *uint) error {
	var count int64
	if err := tx.Model(&models.Table{}).Where("id = ?", tableID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up table: %w", err)
	}
	if count == 0 {
		return invalid("table_id", "unknown table %d", tableID)
	}
	if err := activeEmployee(tx, employeeID); err != nil {
		return err
	}
	if customerID != nil {
		if err := tx.Model(&models.Customer{}).Where("id = ?", *customerID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up customer: %w", err)
		}
		if count == 0 {
			return invalid("customer_id", "unknown customer %d", *customerID)
		}
	}
	return nil
}

// Tax dibulatkan ke 2 desimal
func Tax(subtotal, ratePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ratePercent).Div(hundred).Round(2)
}

func activeEmployee(tx *gorm.DB, employeeID uint) error {
	if employeeID == 0 {
		return invalid("employee_id", "is required")
	}
	var emp models.Employee
	if err := tx.First(&emp, employeeID).Error; err != nil {
		if isNotFound(err) {
			return invalid("employee_id", "unknown employee %d", employeeID)
		}
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	if !emp.Active {
		return invalid("employee_id", "employee %d is not active", employeeID)
	}
	return nil
}

// lockOrder membaca baris order dengan SELECT ... FOR UPDATE (diabaikan di SQLite,
// yang sudah menserialisasi penulis)
func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	return &order, nil
}

func loadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&order, orderID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	deriveTickets(&order)
	return &order, nil
}

func openOrderForTable(db *gorm.DB, tableID uint) (*models.Order, error) {
	var order models.Order
	err := db.Where("open_table_id = ?", tableID).First(&order).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up open order: %w", err)
	}
	return loadOrder(db, order.ID)
}

// deriveTickets mengisi TicketTotal & TicketRevenue dari ledger yang sudah di-preload
func deriveTickets(order *models.Order) {
	summary := foldTickets(order.Tickets)
	order.TicketTotal = summary.Total
	order.TicketRevenue = summary.Revenue
}
