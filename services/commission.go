package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Commission = unitPrice * quantity * ratePercent / 100.
// Satu-satunya definisi komisi; dipakai settlement, invoice langsung dan payroll.
func Commission(unitPrice decimal.Decimal, quantity int, ratePercent decimal.Decimal) decimal.Decimal {
	return unitPrice.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(ratePercent).
		Div(hundred).
		Round(2)
}

// rateResolver menentukan rate komisi yang dibekukan ke invoice item.
// Urutan: rate layanan saat ini di katalog, snapshot di order item, lalu rate karyawan.
type rateResolver struct {
	ctx       context.Context
	tx        *gorm.DB
	catalog   CatalogReader
	employees map[uint]*models.Employee
}

func newRateResolver(ctx context.Context, tx *gorm.DB, catalog CatalogReader) *rateResolver {
	return &rateResolver{
		ctx:       ctx,
		tx:        tx,
		catalog:   catalog,
		employees: make(map[uint]*models.Employee),
	}
}

func (r *rateResolver) employee(id uint) *models.Employee {
	if emp, ok := r.employees[id]; ok {
		return emp
	}
	var emp models.Employee
	if err := r.tx.First(&emp, id).Error; err != nil {
		if !isNotFound(err) {
			utils.ErrorLogger.Printf("Error loading employee %d for commission: %v", id, err)
		}
		r.employees[id] = nil
		return nil
	}
	r.employees[id] = &emp
	return &emp
}

func (r *rateResolver) forEmployee(employeeID uint) decimal.Decimal {
	if emp := r.employee(employeeID); emp != nil {
		return emp.CommissionRate
	}
	return decimal.Zero
}

func (r *rateResolver) forService(serviceID uint, snapshot decimal.Decimal, employeeID uint) (decimal.Decimal, error) {
	rate := snapshot
	svc, err := r.catalog.GetService(r.ctx, serviceID)
	switch {
	case err == nil:
		rate = svc.CommissionRate
	case errors.Is(err, ErrNotFound):
		// layanan sudah dihapus dari katalog, pakai snapshot
	default:
		return decimal.Zero, err
	}

	if rate.IsPositive() {
		return rate, nil
	}
	return r.forEmployee(employeeID), nil
}
