// internal/models/inventory.go
package models

import (
	"github.com/google/uuid"
)

// InventoryRecord tracks stock one-to-one with a product. It is created
// alongside the product and never deleted; soft-deleting the product leaves
// the record in place so a restore keeps its stock.
type InventoryRecord struct {
	BaseModel
	ProductID         uuid.UUID `json:"product_id" gorm:"type:uuid;uniqueIndex;not null"`
	Stock             int       `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	InStock           bool      `json:"in_stock" gorm:"not null;default:false"`
	LowStockThreshold int       `json:"low_stock_threshold" gorm:"not null;default:5"`
}

// DefaultLowStockThreshold is applied when a product is created.
const DefaultLowStockThreshold = 5

// ApplyStock sets the quantity and re-derives InStock from it. InStock is
// never written independently on this path; drift between the two fields is
// only possible through RestoreInventory, which hard-sets InStock=true.
func (r *InventoryRecord) ApplyStock(stock int) {
	r.Stock = stock
	r.InStock = stock > 0
}
