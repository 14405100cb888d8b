package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
)

// EmployeeCommission adalah rekap komisi satu karyawan dalam satu periode
type EmployeeCommission struct {
	EmployeeID uint            `json:"employee_id"`
	Name       string          `json:"name"`
	BaseSalary decimal.Decimal `json:"base_salary"`
	Sales      decimal.Decimal `json:"sales"`
	Commission decimal.Decimal `json:"commission"`
	Lines      int             `json:"lines"`
	TotalPay   decimal.Decimal `json:"total_pay"`
}

type PayrollService struct {
	store *Store
}

func NewPayrollService(store *Store) *PayrollService {
	return &PayrollService{store: store}
}

type commissionLine struct {
	EmployeeID     uint
	Quantity       int
	UnitPrice      decimal.Decimal
	CommissionRate decimal.Decimal
}

// CommissionSummary menghitung komisi dari rate yang sudah dibekukan di invoice item,
// memakai Commission yang sama dengan settlement. Invoice refund/unpaid tidak dihitung.
func (s *PayrollService) CommissionSummary(ctx context.Context, from, to time.Time) ([]EmployeeCommission, error) {
	if !to.After(from) {
		return nil, invalid("to", "must be after from")
	}

	db := s.store.DB(ctx)
	var lines []commissionLine
	err := db.Table("invoice_items").
		Select("invoice_items.employee_id, invoice_items.quantity, invoice_items.unit_price, invoice_items.commission_rate").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoices.created_at >= ? AND invoices.created_at < ?", from, to).
		Where("invoices.payment_status = ?", models.PaymentStatusPaid).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read commission lines: %w", err)
	}

	byEmployee := make(map[uint]*EmployeeCommission)
	for _, line := range lines {
		row, ok := byEmployee[line.EmployeeID]
		if !ok {
			row = &EmployeeCommission{EmployeeID: line.EmployeeID, Sales: decimal.Zero, Commission: decimal.Zero}
			byEmployee[line.EmployeeID] = row
		}
		row.Sales = row.Sales.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		row.Commission = row.Commission.Add(Commission(line.UnitPrice, line.Quantity, line.CommissionRate))
		row.Lines++
	}

	if len(byEmployee) == 0 {
		return []EmployeeCommission{}, nil
	}

	ids := make([]uint, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	var employees []models.Employee
	if err := db.Where("id IN ?", ids).Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}
	for _, emp := range employees {
		row := byEmployee[emp.ID]
		row.Name = emp.Name
		row.BaseSalary = emp.BaseSalary
	}

	result := make([]EmployeeCommission, 0, len(byEmployee))
	for _, row := range byEmployee {
		row.TotalPay = row.BaseSalary.Add(row.Commission)
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}
