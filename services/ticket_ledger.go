package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// TicketLedger adalah ledger append-only untuk top-up tiket buffet.
// Jumlah tiket selalu dihitung ulang dari ledger, tidak ada counter yang bisa ditulis langsung.
type TicketLedger struct {
	store *Store
}

func NewTicketLedger(store *Store) *TicketLedger {
	return &TicketLedger{store: store}
}

// TicketSummary adalah hasil fold ledger untuk satu order
type TicketSummary struct {
	Total   int
	Revenue decimal.Decimal
	Entries []models.TicketEntry
}

// TotalTickets = sum(quantity) dari semua entry order
func (l *TicketLedger) TotalTickets(ctx context.Context, orderID uint) (int, error) {
	summary, err := l.Summary(l.store.DB(ctx), orderID)
	if err != nil {
		return 0, err
	}
	return summary.Total, nil
}

func (l *TicketLedger) TicketRevenue(ctx context.Context, orderID uint) (decimal.Decimal, error) {
	summary, err := l.Summary(l.store.DB(ctx), orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.Revenue, nil
}

// Summary membaca ledger memakai db (boleh transaksi)
func (l *TicketLedger) Summary(db *gorm.DB, orderID uint) (*TicketSummary, error) {
	var entries []models.TicketEntry
	if err := db.Where("order_id = ?", orderID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to read ticket ledger: %w", err)
	}
	return foldTickets(entries), nil
}

func foldTickets(entries []models.TicketEntry) *TicketSummary {
	summary := &TicketSummary{Revenue: decimal.Zero, Entries: entries}
	for _, e := range entries {
		summary.Total += e.Quantity
		summary.Revenue = summary.Revenue.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return summary
}

// Append menambah satu entry ke ledger. Harus dipanggil di dalam transaksi yang
// sudah mengunci baris order; total order dihitung ulang oleh caller.
func (l *TicketLedger) Append(ctx context.Context, tx *gorm.DB, catalog CatalogReader, order *models.Order, packageID uint, quantity int, recordedBy uint) (*models.TicketEntry, error) {
	if quantity <= 0 {
		return nil, invalid("buffet_quantity", "must be greater than zero")
	}
	if packageID == 0 {
		return nil, invalid("buffet_package_id", "is required")
	}
	if order.IsPaid() {
		return nil, &ConflictError{Kind: ConflictOrderClosed, Message: "order is already settled", Order: order}
	}

	pkg, err := catalog.GetPackage(ctx, packageID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("buffet_package_id", "unknown buffet package %d", packageID)
	}
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, invalid("buffet_package_id", "buffet package %q is not active", pkg.Name)
	}

	// Paket order hanya bisa dipilih sekali. Update bersyarat supaya dua terminal
	// yang memilih paket berbeda secara bersamaan tidak bisa sama-sama menang.
	res := tx.Model(&models.Order{}).
		Where("id = ? AND (buffet_package_id IS NULL OR buffet_package_id = ?)", order.ID, packageID).
		Updates(map[string]interface{}{
			"buffet_package_id": packageID,
			"version":           gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim buffet package: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{
			Kind:    ConflictPackageMismatch,
			Message: fmt.Sprintf("order %d already uses another buffet package", order.ID),
			Order:   order,
		}
	}
	order.BuffetPackageID = &packageID

	entry := &models.TicketEntry{
		OrderID:         order.ID,
		BuffetPackageID: pkg.ID,
		PackageName:     pkg.Name,
		Quantity:        quantity,
		UnitPrice:       pkg.Price,
		RecordedBy:      recordedBy,
		CreatedAt:       time.Now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ticket entry: %w", err)
	}
	return entry, nil
}
