package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketEntry adalah satu top-up tiket buffet. Append-only.
type TicketEntry struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	Order           Order           `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	BuffetPackageID uint            `gorm:"not null" json:"buffet_package_id"`
	PackageName     string          `gorm:"type:varchar(255);not null" json:"package_name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	RecordedBy      uint            `json:"recorded_by"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

func (TicketEntry) TableName() string {
	return "order_buffet_tickets"
}
