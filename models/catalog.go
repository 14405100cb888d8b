package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BuffetPackage struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// Jenis layanan di katalog
const (
	ServiceKindFood = "food"
	ServiceKindSpa  = "spa"
)

// Service mencakup menu makanan maupun layanan spa
type Service struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Kind           string          `gorm:"type:varchar(20);not null;default:'food'" json:"kind"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}
