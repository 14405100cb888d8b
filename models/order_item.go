package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem adalah proyeksi daftar item saat ini, hasil fold dari OrderItemEvent.
// Nama dan harga disalin saat item ditulis supaya perubahan katalog tidak mengubah order yang masih terbuka.
type OrderItem struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OrderID uint   `gorm:"not null;index" json:"order_id"`
	Order   Order  `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	LineID  string `gorm:"type:varchar(36);not null;index" json:"line_id"`
	// ServiceID mengacu ke katalog (makanan atau layanan spa)
	ServiceID           uint            `gorm:"not null" json:"service_id"`
	Name                string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity            int             `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CommissionRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	EmployeeID          *uint           `json:"employee_id,omitempty"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Jenis event pada ledger item
const (
	ItemEventAdd    = "add"
	ItemEventUpdate = "update"
	ItemEventRemove = "remove"
)

// OrderItemEvent adalah ledger append-only untuk perubahan item. Baris tidak pernah diubah atau dihapus.
type OrderItemEvent struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"not null;index" json:"order_id"`
	Kind                string          `gorm:"type:varchar(10);not null" json:"kind"`
	LineID              string          `gorm:"type:varchar(36);not null" json:"line_id"`
	ServiceID           uint            `json:"service_id"`
	Name                string          `gorm:"type:varchar(255)" json:"name"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	CommissionRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	EmployeeID          *uint           `json:"employee_id,omitempty"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	RecordedBy          uint            `json:"recorded_by"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
}
