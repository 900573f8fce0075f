// internal/services/testutil_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shoplane/shoplane-backend/internal/models"
)

// newTestDB opens a fresh in-memory database per test. The connection pool
// is pinned to one connection so every query sees the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Test User",
		Role:        role,
		Status:      models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestProduct persists a product together with its inventory record,
// the same pairing CreateProduct maintains.
func createTestProduct(t *testing.T, db *gorm.DB, title string, price float64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Title:           title,
		Description:     "A product used in tests",
		OriginalPrice:   price,
		DiscountedPrice: price,
		Image:           "https://cdn.example.com/img.jpg",
	}
	require.NoError(t, db.Create(product).Error)

	record := &models.InventoryRecord{
		ProductID:         product.ID,
		LowStockThreshold: models.DefaultLowStockThreshold,
	}
	record.ApplyStock(stock)
	require.NoError(t, db.Create(record).Error)

	product.Inventory = record
	return product
}

type orderLine struct {
	product  *models.Product
	quantity int
}

// createTestOrder persists a pending/unpaid order with snapshot items taken
// from the given products.
func createTestOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, lines ...orderLine) *models.Order {
	t.Helper()

	items := make([]models.OrderItem, 0, len(lines))
	var total float64
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ProductID: line.product.ID,
			Title:     line.product.Title,
			Price:     line.product.DiscountedPrice,
			Quantity:  line.quantity,
			Image:     line.product.Image,
		})
		total += line.product.DiscountedPrice * float64(line.quantity)
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		TotalPrice:      roundToCents(total),
		ShippingAddress: "1 Test Street, Test City",
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		PaymentMethod:   models.PaymentMethodCash,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func currentStock(t *testing.T, db *gorm.DB, productID uuid.UUID) *models.InventoryRecord {
	t.Helper()

	var record models.InventoryRecord
	require.NoError(t, db.Where("product_id = ?", productID).First(&record).Error)
	return &record
}
