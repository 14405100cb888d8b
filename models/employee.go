package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	BaseSalary     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"base_salary"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}
