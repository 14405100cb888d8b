package database

import (
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// Migrate membuat/menyesuaikan semua tabel yang dipakai engine order & invoice
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Table{},
		&models.Customer{},
		&models.Employee{},
		&models.BuffetPackage{},
		&models.Service{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemEvent{},
		&models.TicketEntry{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.OutboxEvent{},
	)
	if err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedDemo mengisi katalog contoh kalau katalog masih kosong
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.BuffetPackage{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		seed := []interface{}{
			&models.Table{TableNumber: "A1"},
			&models.Table{TableNumber: "A2"},
			&models.Employee{Name: "Cashier", BaseSalary: decimal.NewFromInt(5000000), CommissionRate: decimal.NewFromInt(2), Active: true},
			&models.BuffetPackage{Name: "Buffet 199k", Price: decimal.NewFromInt(199000), Active: true},
			&models.BuffetPackage{Name: "Buffet 299k", Price: decimal.NewFromInt(299000), Active: true},
			&models.Service{Name: "Coke", Kind: models.ServiceKindFood, Price: decimal.NewFromInt(15000), Active: true},
			&models.Service{Name: "Foot Massage 60'", Kind: models.ServiceKindSpa, Price: decimal.NewFromInt(250000), CommissionRate: decimal.NewFromInt(10), Active: true},
		}
		for _, row := range seed {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		utils.InfoLogger.Println("Demo catalog seeded.")
		return nil
	})
}
