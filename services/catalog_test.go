package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

type countingCatalog struct {
	CatalogReader
	serviceCalls int
}

func (c *countingCatalog) GetService(ctx context.Context, id uint) (*models.Service, error) {
	c.serviceCalls++
	return c.CatalogReader.GetService(ctx, id)
}

func TestCatalogLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catalog := NewCatalog(f.db)

	pkg, err := catalog.GetPackage(ctx, f.buffet199.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buffet 199k", pkg.Name)

	_, err = catalog.GetPackage(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = catalog.GetService(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.db.Model(&models.BuffetPackage{}).Where("id = ?", f.buffet299.ID).Update("active", false).Error)
	packages, err := catalog.ListActivePackages(ctx)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, f.buffet199.ID, packages[0].ID)

	services, err := catalog.ListActiveServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestRequestCatalogMemoizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	counting := &countingCatalog{CatalogReader: NewCatalog(f.db)}
	catalog := NewRequestCatalog(counting)

	for i := 0; i < 3; i++ {
		svc, err := catalog.GetService(ctx, f.coke.ID)
		require.NoError(t, err)
		assert.Equal(t, "Coke", svc.Name)

		_, err = catalog.GetService(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, counting.serviceCalls)
}

func TestInactivePackageRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.BuffetPackage{}).Where("id = ?", f.buffet299.ID).Update("active", false).Error)

	_, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		TableID: f.table.ID,
		Tickets: &TicketInput{PackageID: f.buffet299.ID, Quantity: 1},
	}, f.cashier.ID)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
