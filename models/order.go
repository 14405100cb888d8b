package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status order
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Jenis order
const (
	OrderKindBuffet   = "buffet"
	OrderKindALaCarte = "a_la_carte"
)

// Order adalah satu tab aktif untuk sebuah meja.
//
// OpenTableID sama dengan TableID selama order masih pending dan di-NULL-kan saat
// settle; unique index di kolom ini yang menjamin satu order pending per meja.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TableID         uint            `gorm:"not null;index" json:"table_id"`
	OpenTableID     *uint           `gorm:"uniqueIndex" json:"-"`
	Kind            string          `gorm:"type:varchar(20);not null;default:'a_la_carte'" json:"kind"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EmployeeID      uint            `gorm:"not null;index" json:"employee_id"`
	CustomerID      *uint           `gorm:"index" json:"customer_id,omitempty"`
	BuffetPackageID *uint           `json:"buffet_package_id,omitempty"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Version         uint            `gorm:"not null;default:1" json:"version"`
	SettledAt       *time.Time      `json:"settled_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`

	OrderItems []OrderItem   `gorm:"foreignKey:OrderID" json:"order_items"`
	Tickets    []TicketEntry `gorm:"foreignKey:OrderID" json:"tickets"`

	// Selalu dihitung ulang dari ledger, tidak pernah disimpan.
	TicketTotal   int             `gorm:"-" json:"ticket_total"`
	TicketRevenue decimal.Decimal `gorm:"-" json:"ticket_revenue"`
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// Reference dipakai di log dan struk
func (o *Order) Reference() string {
	return fmt.Sprintf("ORD-%d-T%d", o.ID, o.TableID)
}
