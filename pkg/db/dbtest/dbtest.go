// Package dbtest opens isolated SQLite databases carrying the engine schema.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

// Open returns a fresh in-memory database migrated with every engine model.
// The pool is pinned to one connection so transactions and follow-up reads
// see the same SQLite handle.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:venueops_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn), conn
}

// Concession inserts a stock-tracked item.
func Concession(t testing.TB, conn *gorm.DB, label string, priceCents, stock int) models.InventoryItem {
	t.Helper()
	purchase := priceCents / 2
	item := models.InventoryItem{
		Label:              label,
		Category:           "concession",
		SellingPriceCents:  priceCents,
		PurchasePriceCents: &purchase,
		InStock:            &stock,
		CreatedBy:          uuid.New(),
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed concession %s: %v", label, err)
	}
	return item
}

// Admission inserts an admission item.
func Admission(t testing.TB, conn *gorm.DB, label string, priceCents int, seasonal bool) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		Label:             label,
		Category:          "admission",
		SellingPriceCents: priceCents,
		IsSeasonal:        seasonal,
		IsDay:             !seasonal,
		CreatedBy:         uuid.New(),
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed admission %s: %v", label, err)
	}
	return item
}

// Stock reloads the current stock of an item, failing the test for admissions.
func Stock(t testing.TB, conn *gorm.DB, itemID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := conn.First(&item, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item %s: %v", itemID, err)
	}
	if item.InStock == nil {
		t.Fatalf("item %s has no stock", itemID)
	}
	return *item.InStock
}

// Count returns the number of rows of model.
func Count(t testing.TB, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
