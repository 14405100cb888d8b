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

// DirectInvoiceItem adalah baris penjualan tanpa order (misal layanan spa walk-in)
type DirectInvoiceItem struct {
	ServiceID  uint  `json:"service_id"`
	Quantity   int   `json:"quantity"`
	EmployeeID *uint `json:"employee_id"`
}

type CreateInvoiceInput struct {
	CustomerID     *uint               `json:"customer_id"`
	EmployeeID     uint                `json:"employee_id"`
	PaymentMethod  string              `json:"payment_method"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	Notes          string              `json:"notes"`
	Items          []DirectInvoiceItem `json:"items"`
}

type InvoiceService struct {
	store   *Store
	numbers *InvoiceNumberer
	taxRate decimal.Decimal
}

func NewInvoiceService(store *Store, numbers *InvoiceNumberer, taxRate decimal.Decimal) *InvoiceService {
	return &InvoiceService{store: store, numbers: numbers, taxRate: taxRate}
}

// CreateInvoice membuat invoice langsung tanpa order. Komisi dihitung dengan fungsi yang sama dengan settlement.
func (s *InvoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput, actor uint) (*models.Invoice, error) {
	if in.EmployeeID == 0 {
		in.EmployeeID = actor
	}
	if in.PaymentMethod == "" {
		return nil, invalid("payment_method", "is required")
	}
	if len(in.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	if in.DiscountAmount.IsNegative() {
		return nil, invalid("discount_amount", "must not be negative")
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, invalid("quantity", "must be greater than zero for service %d", item.ServiceID)
		}
	}

	var invoice *models.Invoice
	err := s.store.WithTx(ctx, func(tx *gorm.DB) error {
		if err := activeEmployee(tx, in.EmployeeID); err != nil {
			return err
		}

		catalog := catalogFor(tx)
		rates := newRateResolver(ctx, tx, catalog)
		now := time.Now()
		subtotal := decimal.Zero
		lines := make([]models.InvoiceItem, 0, len(in.Items))

		for _, item := range in.Items {
			svc, err := catalog.GetService(ctx, item.ServiceID)
			if errors.Is(err, ErrNotFound) {
				return invalid("service_id", "unknown service %d", item.ServiceID)
			}
			if err != nil {
				return err
			}
			if !svc.Active {
				return invalid("service_id", "service %q is not active", svc.Name)
			}

			employeeID := in.EmployeeID
			if item.EmployeeID != nil {
				if err := activeEmployee(tx, *item.EmployeeID); err != nil {
					return err
				}
				employeeID = *item.EmployeeID
			}
			rate, err := rates.forService(svc.ID, svc.CommissionRate, employeeID)
			if err != nil {
				return err
			}

			serviceID := svc.ID
			line := models.InvoiceItem{
				Kind:             models.InvoiceItemLine,
				ServiceID:        &serviceID,
				Name:             svc.Name,
				EmployeeID:       employeeID,
				Quantity:         item.Quantity,
				UnitPrice:        svc.Price,
				CommissionRate:   rate,
				CommissionAmount: Commission(svc.Price, item.Quantity, rate),
				CreatedAt:        now,
			}
			subtotal = subtotal.Add(line.LineTotal())
			lines = append(lines, line)
		}

		if in.DiscountAmount.GreaterThan(subtotal) {
			return invalid("discount_amount", "exceeds subtotal %s", subtotal)
		}
		taxable := subtotal.Sub(in.DiscountAmount)
		tax := Tax(taxable, s.taxRate)

		invoice = &models.Invoice{
			InvoiceNumber:  s.numbers.Next(now),
			CustomerID:     in.CustomerID,
			EmployeeID:     in.EmployeeID,
			Subtotal:       subtotal,
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      tax,
			TotalAmount:    taxable.Add(tax),
			PaymentMethod:  in.PaymentMethod,
			PaymentStatus:  models.PaymentStatusPaid,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
			InvoiceItems:   lines,
		}
		if err := tx.Create(invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return recordEvent(tx, TopicInvoiceCreated, invoice.ID, invoice)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"total_amount":   invoice.TotalAmount.String(),
	}).Info("Direct invoice created")
	return invoice, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.store.DB(ctx).
		Preload("InvoiceItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&invoice, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load invoice %d: %w", id, err)
	}
	return &invoice, nil
}

// UpdatePaymentStatus adalah satu-satunya perubahan yang diizinkan pada invoice (koreksi operator)
func (s *InvoiceService) UpdatePaymentStatus(ctx context.Context, id uint, status string, actor uint) (*models.Invoice, error) {
	switch status {
	case models.PaymentStatusPaid, models.PaymentStatusUnpaid, models.PaymentStatusRefunded:
	default:
		return nil, invalid("payment_status", "unknown payment status %q", status)
	}

	err := s.store.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update payment status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"invoice_id":     id,
		"payment_status": status,
		"changed_by":     actor,
	}).Info("Invoice payment status corrected")
	return s.GetInvoice(ctx, id)
}
