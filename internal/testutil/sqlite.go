// Package testutil builds throwaway sqlite databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"go-inventory-procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory database with the full schema. A single
// connection is used so concurrent units of work queue behind each other the
// way row locks make them on postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Location{},
		&model.Category{},
		&model.Company{},
		&model.User{},
		&model.Product{},
		&model.Transaction{},
		&model.TransactionItem{},
	))
	return db
}

func Location(t *testing.T, db *gorm.DB, name string, hq bool) *model.Location {
	t.Helper()
	loc := &model.Location{LocationName: name, IsHeadquarters: hq}
	require.NoError(t, db.Create(loc).Error)
	return loc
}

func Company(t *testing.T, db *gorm.DB, name string) *model.Company {
	t.Helper()
	c := &model.Company{CompanyName: name, CompanyEmail: "contact@example.com"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func User(t *testing.T, db *gorm.DB, email, role string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: email, Role: role, IsActive: true}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// Product creates a catalog row. cost and selling are decimal strings.
func Product(t *testing.T, db *gorm.DB, itemCode string, locationID uuid.UUID, stock int, cost, selling string) *model.Product {
	t.Helper()
	p := &model.Product{
		ItemCode:     itemCode,
		ProductName:  "Product " + itemCode,
		CostPrice:    decimal.RequireFromString(cost),
		SellingPrice: decimal.RequireFromString(selling),
		Stock:        stock,
		LocationID:   locationID,
	}
	require.NoError(t, db.Omit("Location", "Category").Create(p).Error)
	return p
}

// Stock reads the current stock of a product row.
func Stock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.Stock
}

// StockAt reads the stock of itemCode at a location, failing if the row is missing.
func StockAt(t *testing.T, db *gorm.DB, itemCode string, locationID uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Where("item_code = ? AND location_id = ?", itemCode, locationID).First(&p).Error)
	return p.Stock
}
