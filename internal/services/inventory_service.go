// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/database"
	"github.com/shoplane/shoplane-backend/internal/models"
)

// InventoryService owns the two inverse stock movements tied to an order:
// deduction when an admin commits the order against inventory, restoration
// when that commitment is undone. Both run as a single database transaction
// so stock and the order's latch move together or not at all.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// DeductInventory deducts stock for every item of the order, exactly once.
//
// Deduction uses a conditional decrement (stock = stock - q WHERE stock >= q)
// rather than read-modify-write, so two admins processing different orders
// over the same product cannot lose an update: whichever commits second
// either sees the reduced stock or fails the condition and rolls back.
func (s *InventoryService) DeductInventory(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// Idempotency latch first, state guards second.
		if order.InventoryUpdated {
			return ErrAlreadyProcessed
		}
		if order.Status == models.OrderStatusCancelled {
			return fmt.Errorf("%w: cannot update inventory for cancelled orders", ErrInvalidState)
		}
		if order.Status == models.OrderStatusDelivered {
			return fmt.Errorf("%w: inventory already deducted for delivered orders", ErrInvalidState)
		}

		if err := tx.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		// First pass: verify every item, collecting every shortage so the
		// failure names all offending items, not just the first.
		var shortages []ShortageItem
		for _, item := range order.Items {
			var record models.InventoryRecord
			err := tx.Where("product_id = ?", item.ProductID).First(&record).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				shortages = append(shortages, ShortageItem{
					ProductID: item.ProductID.String(),
					Title:     item.Title,
					Requested: item.Quantity,
					Missing:   true,
				})
				continue
			}
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}

			if record.Stock < item.Quantity {
				shortages = append(shortages, ShortageItem{
					ProductID: item.ProductID.String(),
					Title:     item.Title,
					Requested: item.Quantity,
					Available: record.Stock,
				})
			}
		}

		if len(shortages) > 0 {
			return &StockShortageError{Items: shortages}
		}

		// Second pass: conditional decrements. InStock is recomputed from
		// the post-decrement quantity in the same statement.
		for _, item := range order.Items {
			res := tx.Model(&models.InventoryRecord{}).
				Where("product_id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Updates(map[string]interface{}{
					"stock":    gorm.Expr("stock - ?", item.Quantity),
					"in_stock": gorm.Expr("stock - ? > 0", item.Quantity),
				})
			if res.Error != nil {
				return fmt.Errorf("failed to update inventory: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				// A concurrent deduction drained this product between the
				// check and the decrement. Rolling back undoes the batch.
				var record models.InventoryRecord
				available := 0
				if err := tx.Where("product_id = ?", item.ProductID).First(&record).Error; err == nil {
					available = record.Stock
				}
				return &StockShortageError{Items: []ShortageItem{{
					ProductID: item.ProductID.String(),
					Title:     item.Title,
					Requested: item.Quantity,
					Available: available,
				}}}
			}
		}

		now := time.Now()
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"inventory_updated":    true,
			"inventory_updated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		order.InventoryUpdated = true
		order.InventoryUpdatedAt = &now
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// RestoreInventory reverses a prior deduction. Restored products are
// hard-set to in stock regardless of threshold; only deduction re-derives
// the flag from quantity. Items whose inventory record has disappeared are
// skipped, matching the deduction's tolerance in reverse.
func (s *InventoryService) RestoreInventory(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.InventoryUpdated {
			return ErrNothingToRestore
		}
		if order.Status == models.OrderStatusDelivered {
			return fmt.Errorf("%w: cannot restore inventory for delivered orders", ErrInvalidState)
		}

		if err := tx.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		for _, item := range order.Items {
			res := tx.Model(&models.InventoryRecord{}).
				Where("product_id = ?", item.ProductID).
				Updates(map[string]interface{}{
					"stock":    gorm.Expr("stock + ?", item.Quantity),
					"in_stock": true,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to restore inventory: %w", res.Error)
			}
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"inventory_updated":    false,
			"inventory_updated_at": nil,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		order.InventoryUpdated = false
		order.InventoryUpdatedAt = nil
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (s *InventoryService) GetByProduct(productID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := s.db.Where("product_id = ?", productID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &record, nil
}

// SetStock is the direct admin edit. It re-derives InStock from the new
// quantity like deduction does.
func (s *InventoryService) SetStock(productID uuid.UUID, stock, lowStockThreshold int) (*models.InventoryRecord, error) {
	if stock < 0 {
		return nil, errors.New("validation failed: stock cannot be negative")
	}
	if lowStockThreshold < 0 {
		return nil, errors.New("validation failed: low stock threshold cannot be negative")
	}

	var record models.InventoryRecord
	if err := s.db.Where("product_id = ?", productID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	record.ApplyStock(stock)
	record.LowStockThreshold = lowStockThreshold

	if err := s.db.Model(&record).Updates(map[string]interface{}{
		"stock":               record.Stock,
		"in_stock":            record.InStock,
		"low_stock_threshold": record.LowStockThreshold,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update inventory: %w", err)
	}

	return &record, nil
}

// GetLowStock lists records at or below their threshold, for the dashboard.
func (s *InventoryService) GetLowStock(limit int) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	if err := s.db.Where("stock <= low_stock_threshold").
		Order("stock ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch low stock records: %w", err)
	}
	return records, nil
}
