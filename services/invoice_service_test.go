package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func TestCreateDirectInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.invoices.CreateInvoice(ctx, CreateInvoiceInput{
		PaymentMethod:  "cash",
		DiscountAmount: decimal.NewFromInt(10000),
		Items: []DirectInvoiceItem{
			{ServiceID: f.massage.ID, Quantity: 1, EmployeeID: &f.therapist.ID},
			{ServiceID: f.coke.ID, Quantity: 2},
		},
	}, f.cashier.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "INV/"))
	assert.Nil(t, invoice.OrderID)
	assert.Equal(t, f.cashier.ID, invoice.EmployeeID)
	assert.Equal(t, models.PaymentStatusPaid, invoice.PaymentStatus)
	requireDecimal(t, 280000, invoice.Subtotal)
	requireDecimal(t, 10000, invoice.DiscountAmount)
	requireDecimal(t, 270000, invoice.TotalAmount)

	require.Len(t, invoice.InvoiceItems, 2)
	massage := invoice.InvoiceItems[0]
	assert.Equal(t, f.therapist.ID, massage.EmployeeID)
	requireDecimal(t, 25000, massage.CommissionAmount)

	// rate layanan 0, jatuh ke rate kasir 2%
	coke := invoice.InvoiceItems[1]
	assert.Equal(t, f.cashier.ID, coke.EmployeeID)
	requireDecimal(t, 2, coke.CommissionRate)
	requireDecimal(t, 600, coke.CommissionAmount)

	loaded, err := f.invoices.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.InvoiceNumber, loaded.InvoiceNumber)
	assert.Len(t, loaded.InvoiceItems, 2)

	var events int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("topic = ?", TopicInvoiceCreated).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestDirectInvoiceTaxAfterDiscount(t *testing.T) {
	f := newFixture(t)
	numbers, err := NewInvoiceNumberer(3)
	require.NoError(t, err)
	invoices := NewInvoiceService(f.store, numbers, decimal.NewFromInt(10))

	invoice, err := invoices.CreateInvoice(context.Background(), CreateInvoiceInput{
		PaymentMethod:  "qris",
		DiscountAmount: decimal.NewFromInt(5000),
		Items:          []DirectInvoiceItem{{ServiceID: f.coke.ID, Quantity: 3}},
	}, f.cashier.ID)
	require.NoError(t, err)
	requireDecimal(t, 45000, invoice.Subtotal)
	requireDecimal(t, 4000, invoice.TaxAmount)
	requireDecimal(t, 44000, invoice.TotalAmount)
}

func TestCreateDirectInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unknown := uint(999)

	cases := []struct {
		name  string
		input CreateInvoiceInput
	}{
		{"missing payment method", CreateInvoiceInput{Items: []DirectInvoiceItem{{ServiceID: f.coke.ID, Quantity: 1}}}},
		{"no items", CreateInvoiceInput{PaymentMethod: "cash"}},
		{"zero quantity", CreateInvoiceInput{PaymentMethod: "cash", Items: []DirectInvoiceItem{{ServiceID: f.coke.ID}}}},
		{"negative discount", CreateInvoiceInput{PaymentMethod: "cash", DiscountAmount: decimal.NewFromInt(-1), Items: []DirectInvoiceItem{{ServiceID: f.coke.ID, Quantity: 1}}}},
		{"discount above subtotal", CreateInvoiceInput{PaymentMethod: "cash", DiscountAmount: decimal.NewFromInt(20000), Items: []DirectInvoiceItem{{ServiceID: f.coke.ID, Quantity: 1}}}},
		{"unknown service", CreateInvoiceInput{PaymentMethod: "cash", Items: []DirectInvoiceItem{{ServiceID: 999, Quantity: 1}}}},
		{"unknown employee", CreateInvoiceInput{PaymentMethod: "cash", Items: []DirectInvoiceItem{{ServiceID: f.coke.ID, Quantity: 1, EmployeeID: &unknown}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.invoices.CreateInvoice(ctx, tc.input, f.cashier.ID)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.invoices.CreateInvoice(ctx, CreateInvoiceInput{
		PaymentMethod: "cash",
		Items:         []DirectInvoiceItem{{ServiceID: f.coke.ID, Quantity: 1}},
	}, f.cashier.ID)
	require.NoError(t, err)

	updated, err := f.invoices.UpdatePaymentStatus(ctx, invoice.ID, models.PaymentStatusRefunded, f.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, updated.PaymentStatus)
	requireDecimal(t, 15000, updated.TotalAmount)

	_, err = f.invoices.UpdatePaymentStatus(ctx, invoice.ID, "void", f.cashier.ID)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.invoices.UpdatePaymentStatus(ctx, 999, models.PaymentStatusPaid, f.cashier.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.invoices.GetInvoice(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
