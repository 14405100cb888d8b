package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status pembayaran invoice
const (
	PaymentStatusPaid     = "paid"
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusRefunded = "refunded"
)

// Jenis baris invoice
const (
	InvoiceItemTicket = "ticket"
	InvoiceItemLine   = "item"
)

// Invoice bersifat immutable setelah dibuat, kecuali koreksi PaymentStatus oleh operator.
// OrderID unik (nullable) sehingga satu order hanya bisa punya satu invoice.
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"invoice_number"`
	OrderID        *uint           `gorm:"uniqueIndex" json:"order_id,omitempty"`
	CustomerID     *uint           `gorm:"index" json:"customer_id,omitempty"`
	EmployeeID     uint            `gorm:"not null;index" json:"employee_id"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod  string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null;default:'paid'" json:"payment_status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`

	InvoiceItems []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"invoice_items"`
}

// InvoiceItem adalah satu baris berharga yang membawa komisi.
// CommissionRate disimpan saat settle supaya perubahan rate karyawan tidak mengubah invoice lama.
type InvoiceItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	InvoiceID        uint            `gorm:"not null;index" json:"invoice_id"`
	Invoice          Invoice         `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Kind             string          `gorm:"type:varchar(10);not null;default:'item'" json:"kind"`
	ServiceID        *uint           `json:"service_id,omitempty"`
	BuffetPackageID  *uint           `json:"buffet_package_id,omitempty"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	EmployeeID       uint            `gorm:"not null;index" json:"employee_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"commission_amount"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
}

func (i InvoiceItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
