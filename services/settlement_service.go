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
)

// errAlreadyInvoiced: insert invoice kena unique constraint order_id di dalam transaksi
var errAlreadyInvoiced = errors.New("order already has an invoice")

// SettleResult.AlreadySettled true berarti invoice sudah ada sebelumnya dan dikembalikan apa adanya
type SettleResult struct {
	Invoice        *models.Invoice
	AlreadySettled bool
}

// SettlementService mengubah order pending menjadi tepat satu invoice
type SettlementService struct {
	store   *Store
	tickets *TicketLedger
	numbers *InvoiceNumberer
	taxRate decimal.Decimal
	timeout time.Duration
}

func NewSettlementService(store *Store, tickets *TicketLedger, numbers *InvoiceNumberer, taxRate decimal.Decimal, timeout time.Duration) *SettlementService {
	return &SettlementService{
		store:   store,
		tickets: tickets,
		numbers: numbers,
		taxRate: taxRate,
		timeout: timeout,
	}
}

// Settle idempotent: panggilan ulang untuk order yang sama mengembalikan invoice yang sama.
func (s *SettlementService) Settle(ctx context.Context, orderID uint, paymentMethod string, actor uint) (*SettleResult, error) {
	return s.settle(ctx, orderID, paymentMethod, actor, nil)
}

// UpdateAndSettle menerapkan perubahan order lalu settle dalam satu transaksi, jadi
// kalau settle gagal perubahan ikut batal. Order yang sudah paid langsung mengembalikan
// invoice lama tanpa menyentuh perubahan.
func (s *SettlementService) UpdateAndSettle(ctx context.Context, orders *OrderService, orderID uint, in UpdateOrderInput, paymentMethod string, actor uint) (*SettleResult, error) {
	if !in.HasChanges() {
		return s.Settle(ctx, orderID, paymentMethod, actor)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.settle(ctx, orderID, paymentMethod, actor, func(tx *gorm.DB, order *models.Order) error {
		return orders.mutateLocked(tx, order, in.ExpectedVersion, func(tx *gorm.DB, order *models.Order) error {
			return orders.apply(ctx, tx, order, in, actor)
		})
	})
}

// settle: before (boleh nil) dijalankan pada order pending yang belum punya invoice,
// di transaksi yang sama dengan pembuatan invoice
func (s *SettlementService) settle(ctx context.Context, orderID uint, paymentMethod string, actor uint, before func(tx *gorm.DB, order *models.Order) error) (*SettleResult, error) {
	if paymentMethod == "" {
		return nil, invalid("payment_method", "is required")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var result *SettleResult
	err := s.store.WithTx(ctx, func(tx *gorm.DB) error {
		result = nil
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		existing, err := invoiceForOrder(tx, order.ID)
		if err != nil {
			return err
		}
		if order.IsPaid() {
			if existing == nil {
				return fmt.Errorf("order %d is paid but has no invoice: %w", order.ID, ErrInconsistentTotals)
			}
			result = &SettleResult{Invoice: existing, AlreadySettled: true}
			return nil
		}
		if existing != nil {
			// invoice sudah dibuat tapi status order belum sempat diubah
			if err := markPaid(tx, order, existing); err != nil {
				return err
			}
			result = &SettleResult{Invoice: existing, AlreadySettled: true}
			return nil
		}

		if before != nil {
			if err := before(tx, order); err != nil {
				return err
			}
		}

		invoice, err := s.buildInvoice(ctx, tx, order, paymentMethod)
		if err != nil {
			return err
		}
		if err := tx.Create(invoice).Error; err != nil {
			if isDuplicate(err) {
				return errAlreadyInvoiced
			}
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		if err := markPaid(tx, order, invoice); err != nil {
			return err
		}
		if err := recordEvent(tx, TopicInvoiceCreated, invoice.ID, invoice); err != nil {
			return err
		}
		result = &SettleResult{Invoice: invoice}
		return nil
	})

	if errors.Is(err, errAlreadyInvoiced) {
		existing, loadErr := invoiceForOrder(s.store.DB(ctx), orderID)
		if loadErr != nil {
			return nil, loadErr
		}
		if existing == nil {
			return nil, err
		}
		return &SettleResult{Invoice: existing, AlreadySettled: true}, nil
	}
	if err != nil {
		if errors.Is(err, ErrInconsistentTotals) {
			utils.ErrorLogger.WithField("order_id", orderID).Errorf("Settlement refused: %v", err)
		}
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":        orderID,
		"invoice_id":      result.Invoice.ID,
		"invoice_number":  result.Invoice.InvoiceNumber,
		"already_settled": result.AlreadySettled,
		"recorded_by":     actor,
	}).Info("Order settled")
	return result, nil
}

// buildInvoice menyusun invoice dari ledger tiket dan proyeksi item. Nama dan harga
// diambil dari snapshot, jadi katalog yang sudah berubah/dihapus tidak menggagalkan settle.
func (s *SettlementService) buildInvoice(ctx context.Context, tx *gorm.DB, order *models.Order, paymentMethod string) (*models.Invoice, error) {
	summary, err := s.tickets.Summary(tx, order.ID)
	if err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	derived := summary.Revenue.Add(itemRevenue(items))
	if !derived.Equal(order.Subtotal) {
		return nil, fmt.Errorf("order %d subtotal %s, ledger says %s: %w", order.ID, order.Subtotal, derived, ErrInconsistentTotals)
	}
	if summary.Total == 0 && len(items) == 0 {
		return nil, invalid("order", "order %d has nothing to settle", order.ID)
	}

	rates := newRateResolver(ctx, tx, catalogFor(tx))
	now := time.Now()
	var lines []models.InvoiceItem

	for _, block := range ticketBlocks(summary.Entries) {
		rate := rates.forEmployee(order.EmployeeID)
		packageID := block.PackageID
		lines = append(lines, models.InvoiceItem{
			Kind:             models.InvoiceItemTicket,
			BuffetPackageID:  &packageID,
			Name:             block.Name,
			EmployeeID:       order.EmployeeID,
			Quantity:         block.Quantity,
			UnitPrice:        block.UnitPrice,
			CommissionRate:   rate,
			CommissionAmount: Commission(block.UnitPrice, block.Quantity, rate),
			CreatedAt:        now,
		})
	}

	for _, item := range items {
		employeeID := order.EmployeeID
		if item.EmployeeID != nil {
			employeeID = *item.EmployeeID
		}
		rate, err := rates.forService(item.ServiceID, item.CommissionRate, employeeID)
		if err != nil {
			return nil, err
		}
		serviceID := item.ServiceID
		lines = append(lines, models.InvoiceItem{
			Kind:             models.InvoiceItemLine,
			ServiceID:        &serviceID,
			Name:             item.Name,
			EmployeeID:       employeeID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			CommissionRate:   rate,
			CommissionAmount: Commission(item.UnitPrice, item.Quantity, rate),
			CreatedAt:        now,
		})
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	tax := Tax(subtotal, s.taxRate)
	orderID := order.ID

	return &models.Invoice{
		InvoiceNumber:  s.numbers.Next(now),
		OrderID:        &orderID,
		CustomerID:     order.CustomerID,
		EmployeeID:     order.EmployeeID,
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		TaxAmount:      tax,
		TotalAmount:    subtotal.Add(tax),
		PaymentMethod:  paymentMethod,
		PaymentStatus:  models.PaymentStatusPaid,
		Notes:          order.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
		InvoiceItems:   lines,
	}, nil
}

type ticketBlock struct {
	PackageID uint
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// ticketBlocks mengelompokkan top-up per paket dan harga snapshot.
// Normalnya hanya satu blok karena paket order tidak bisa berubah.
func ticketBlocks(entries []models.TicketEntry) []ticketBlock {
	var blocks []ticketBlock
	index := make(map[string]int)
	for _, e := range entries {
		key := fmt.Sprintf("%d@%s", e.BuffetPackageID, e.UnitPrice.String())
		i, ok := index[key]
		if !ok {
			blocks = append(blocks, ticketBlock{PackageID: e.BuffetPackageID, Name: e.PackageName, UnitPrice: e.UnitPrice})
			i = len(blocks) - 1
			index[key] = i
		}
		blocks[i].Quantity += e.Quantity
	}
	return blocks
}

func markPaid(tx *gorm.DB, order *models.Order, invoice *models.Invoice) error {
	now := time.Now()
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":        models.OrderStatusPaid,
			"open_table_id": nil,
			"settled_at":    now,
			"version":       order.Version + 1,
			"updated_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark order %d paid: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Kind: ConflictOrderClosed, Message: fmt.Sprintf("order %d is no longer pending", order.ID), Order: order}
	}
	order.Status = models.OrderStatusPaid
	order.OpenTableID = nil
	order.SettledAt = &now
	order.Version++

	return recordEvent(tx, TopicOrderSettled, order.ID, map[string]interface{}{
		"order_id":       order.ID,
		"table_id":       order.TableID,
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"total_amount":   invoice.TotalAmount,
	})
}

func invoiceForOrder(db *gorm.DB, orderID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.Preload("InvoiceItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("order_id = ?", orderID).First(&invoice).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invoice for order %d: %w", orderID, err)
	}
	return &invoice, nil
}
