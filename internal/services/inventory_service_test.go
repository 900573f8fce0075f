// internal/services/inventory_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/models"
)

type InventoryServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *InventoryService
	user    *models.User
}

func (s *InventoryServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewInventoryService(s.db)
	s.user = createTestUser(s.T(), s.db, models.UserRoleCustomer)
}

func (s *InventoryServiceTestSuite) TestDeductDecrementsStockAndSetsLatch() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})

	updated, err := s.service.DeductInventory(order.ID)
	s.Require().NoError(err)

	s.True(updated.InventoryUpdated)
	s.NotNil(updated.InventoryUpdatedAt)

	record := currentStock(s.T(), s.db, product.ID)
	s.Equal(7, record.Stock)
	s.True(record.InStock)
}

func (s *InventoryServiceTestSuite) TestDeductToZeroClearsInStock() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 3)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})

	_, err := s.service.DeductInventory(order.ID)
	s.Require().NoError(err)

	record := currentStock(s.T(), s.db, product.ID)
	s.Equal(0, record.Stock)
	s.False(record.InStock)
}

func (s *InventoryServiceTestSuite) TestDeductIsIdempotent() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})

	_, err := s.service.DeductInventory(order.ID)
	s.Require().NoError(err)

	_, err = s.service.DeductInventory(order.ID)
	s.ErrorIs(err, ErrAlreadyProcessed)

	// Second attempt must not touch stock
	s.Equal(7, currentStock(s.T(), s.db, product.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestDeductRejectsCancelledOrder() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})
	s.Require().NoError(s.db.Model(order).Update("status", models.OrderStatusCancelled).Error)

	_, err := s.service.DeductInventory(order.ID)
	s.ErrorIs(err, ErrInvalidState)
	s.Equal(10, currentStock(s.T(), s.db, product.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestDeductRejectsDeliveredOrder() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})
	s.Require().NoError(s.db.Model(order).Update("status", models.OrderStatusDelivered).Error)

	_, err := s.service.DeductInventory(order.ID)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *InventoryServiceTestSuite) TestDeductUnknownOrder() {
	_, err := s.service.DeductInventory(uuid.New())
	s.ErrorIs(err, ErrOrderNotFound)
}

func (s *InventoryServiceTestSuite) TestDeductReportsEveryShortage() {
	lamp := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 1)
	chair := createTestProduct(s.T(), s.db, "Office Chair", 199.00, 2)
	order := createTestOrder(s.T(), s.db, s.user.ID,
		orderLine{lamp, 5}, orderLine{chair, 3})

	_, err := s.service.DeductInventory(order.ID)

	var shortage *StockShortageError
	s.Require().True(errors.As(err, &shortage))
	s.Len(shortage.Items, 2)
	s.Contains(shortage.Error(), "Desk Lamp (Available: 1)")
	s.Contains(shortage.Error(), "Office Chair (Available: 2)")

	// Nothing was deducted and the latch stayed down
	s.Equal(1, currentStock(s.T(), s.db, lamp.ID).Stock)
	s.Equal(2, currentStock(s.T(), s.db, chair.ID).Stock)

	var reloaded models.Order
	s.Require().NoError(s.db.Where("id = ?", order.ID).First(&reloaded).Error)
	s.False(reloaded.InventoryUpdated)
}

func (s *InventoryServiceTestSuite) TestDeductIsAtomicAcrossItems() {
	lamp := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	chair := createTestProduct(s.T(), s.db, "Office Chair", 199.00, 1)
	order := createTestOrder(s.T(), s.db, s.user.ID,
		orderLine{lamp, 2}, orderLine{chair, 5})

	_, err := s.service.DeductInventory(order.ID)

	var shortage *StockShortageError
	s.Require().True(errors.As(err, &shortage))

	// The covered item must not be partially deducted
	s.Equal(10, currentStock(s.T(), s.db, lamp.ID).Stock)
	s.Equal(1, currentStock(s.T(), s.db, chair.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestDeductMissingInventoryRecord() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 1})

	s.Require().NoError(s.db.Where("product_id = ?", product.ID).
		Delete(&models.InventoryRecord{}).Error)

	_, err := s.service.DeductInventory(order.ID)

	var shortage *StockShortageError
	s.Require().True(errors.As(err, &shortage))
	s.Require().Len(shortage.Items, 1)
	s.True(shortage.Items[0].Missing)
}

func (s *InventoryServiceTestSuite) TestRestoreReversesDeduction() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 4})

	_, err := s.service.DeductInventory(order.ID)
	s.Require().NoError(err)
	s.Equal(6, currentStock(s.T(), s.db, product.ID).Stock)

	restored, err := s.service.RestoreInventory(order.ID)
	s.Require().NoError(err)
	s.False(restored.InventoryUpdated)
	s.Nil(restored.InventoryUpdatedAt)

	record := currentStock(s.T(), s.db, product.ID)
	s.Equal(10, record.Stock)
	s.True(record.InStock)
}

func (s *InventoryServiceTestSuite) TestRestoreHardSetsInStock() {
	// Deduct to zero, then restore. InStock flips back to true because the
	// restore path sets it unconditionally.
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 2)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 2})

	_, err := s.service.DeductInventory(order.ID)
	s.Require().NoError(err)
	s.False(currentStock(s.T(), s.db, product.ID).InStock)

	_, err = s.service.RestoreInventory(order.ID)
	s.Require().NoError(err)

	record := currentStock(s.T(), s.db, product.ID)
	s.Equal(2, record.Stock)
	s.True(record.InStock)
}

func (s *InventoryServiceTestSuite) TestRestoreWithoutDeduction() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})

	_, err := s.service.RestoreInventory(order.ID)
	s.ErrorIs(err, ErrNothingToRestore)
	s.Equal(10, currentStock(s.T(), s.db, product.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestRestoreRejectsDeliveredOrder() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 10)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})

	_, err := s.service.DeductInventory(order.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(order).Update("status", models.OrderStatusDelivered).Error)

	_, err = s.service.RestoreInventory(order.ID)
	s.ErrorIs(err, ErrInvalidState)
	s.Equal(7, currentStock(s.T(), s.db, product.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestDeductRestoreCycleConservesStock() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 8)
	order := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 5})

	for i := 0; i < 3; i++ {
		_, err := s.service.DeductInventory(order.ID)
		s.Require().NoError(err)
		s.Equal(3, currentStock(s.T(), s.db, product.ID).Stock)

		_, err = s.service.RestoreInventory(order.ID)
		s.Require().NoError(err)
		s.Equal(8, currentStock(s.T(), s.db, product.ID).Stock)
	}
}

func (s *InventoryServiceTestSuite) TestCompetingOrdersOverSameProduct() {
	// Two orders want more units combined than exist. Whichever is processed
	// first wins; the second fails whole, and succeeds after a restore.
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 5)
	first := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 3})
	second := createTestOrder(s.T(), s.db, s.user.ID, orderLine{product, 4})

	_, err := s.service.DeductInventory(first.ID)
	s.Require().NoError(err)
	s.Equal(2, currentStock(s.T(), s.db, product.ID).Stock)

	_, err = s.service.DeductInventory(second.ID)
	var shortage *StockShortageError
	s.Require().True(errors.As(err, &shortage))
	s.Contains(shortage.Error(), "Desk Lamp (Available: 2)")
	s.Equal(2, currentStock(s.T(), s.db, product.ID).Stock)

	_, err = s.service.RestoreInventory(first.ID)
	s.Require().NoError(err)
	s.Equal(5, currentStock(s.T(), s.db, product.ID).Stock)

	_, err = s.service.DeductInventory(second.ID)
	s.Require().NoError(err)
	s.Equal(1, currentStock(s.T(), s.db, product.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestSetStockRederivesInStock() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 0)

	record, err := s.service.SetStock(product.ID, 12, 4)
	s.Require().NoError(err)
	s.Equal(12, record.Stock)
	s.True(record.InStock)
	s.Equal(4, record.LowStockThreshold)

	record, err = s.service.SetStock(product.ID, 0, 4)
	s.Require().NoError(err)
	s.False(record.InStock)
}

func (s *InventoryServiceTestSuite) TestSetStockRejectsNegative() {
	product := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 5)

	_, err := s.service.SetStock(product.ID, -1, 5)
	s.Error(err)
	s.Equal(5, currentStock(s.T(), s.db, product.ID).Stock)
}

func (s *InventoryServiceTestSuite) TestGetLowStock() {
	low := createTestProduct(s.T(), s.db, "Desk Lamp", 49.99, 2)
	createTestProduct(s.T(), s.db, "Office Chair", 199.00, 50)

	records, err := s.service.GetLowStock(10)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(low.ID, records[0].ProductID)
}

func TestInventoryServiceSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}
