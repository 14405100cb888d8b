package services

import (
	"context"

	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// CatalogReader adalah lookup read-only paket buffet dan layanan.
// ErrNotFound adalah hasil normal yang wajib ditangani caller.
type CatalogReader interface {
	GetPackage(ctx context.Context, id uint) (*models.BuffetPackage, error)
	GetService(ctx context.Context, id uint) (*models.Service, error)
	ListActivePackages(ctx context.Context) ([]models.BuffetPackage, error)
	ListActiveServices(ctx context.Context) ([]models.Service, error)
}

type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) GetPackage(ctx context.Context, id uint) (*models.BuffetPackage, error) {
	var pkg models.BuffetPackage
	if err := c.db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (c *Catalog) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	if err := c.db.WithContext(ctx).First(&svc, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}

func (c *Catalog) ListActivePackages(ctx context.Context) ([]models.BuffetPackage, error) {
	var packages []models.BuffetPackage
	err := c.db.WithContext(ctx).Where("active = ?", true).Order("name asc").Find(&packages).Error
	return packages, err
}

func (c *Catalog) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := c.db.WithContext(ctx).Where("active = ?", true).Order("name asc").Find(&services).Error
	return services, err
}

// RequestCatalog memoize lookup selama satu request/transaksi.
// Jangan disimpan lintas request.
type RequestCatalog struct {
	reader   CatalogReader
	packages map[uint]*models.BuffetPackage
	services map[uint]*models.Service
}

func NewRequestCatalog(reader CatalogReader) *RequestCatalog {
	return &RequestCatalog{
		reader:   reader,
		packages: make(map[uint]*models.BuffetPackage),
		services: make(map[uint]*models.Service),
	}
}

func (c *RequestCatalog) GetPackage(ctx context.Context, id uint) (*models.BuffetPackage, error) {
	if pkg, ok := c.packages[id]; ok {
		if pkg == nil {
			return nil, ErrNotFound
		}
		return pkg, nil
	}
	pkg, err := c.reader.GetPackage(ctx, id)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	c.packages[id] = pkg
	return pkg, err
}

func (c *RequestCatalog) GetService(ctx context.Context, id uint) (*models.Service, error) {
	if svc, ok := c.services[id]; ok {
		if svc == nil {
			return nil, ErrNotFound
		}
		return svc, nil
	}
	svc, err := c.reader.GetService(ctx, id)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	c.services[id] = svc
	return svc, err
}

func (c *RequestCatalog) ListActivePackages(ctx context.Context) ([]models.BuffetPackage, error) {
	return c.reader.ListActivePackages(ctx)
}

func (c *RequestCatalog) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	return c.reader.ListActiveServices(ctx)
}

// catalogFor membuat reader yang terikat ke transaksi berjalan
func catalogFor(tx *gorm.DB) *RequestCatalog {
	return NewRequestCatalog(NewCatalog(tx))
}
