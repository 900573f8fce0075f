// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a frozen snapshot of the product at order time. Historical
// orders must render from these fields, never from a re-join against the
// live product.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Price     float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity >= 1"`
	Image     string    `json:"image" gorm:"size:512"`
}

type Order struct {
	BaseModel
	UserID          uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Items           []OrderItem   `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalPrice      float64       `json:"total_price" gorm:"type:decimal(10,2);not null"`
	ShippingAddress string        `json:"shipping_address" gorm:"type:text;not null"`
	Status          OrderStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus   PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'unpaid';index"`
	PaymentMethod   PaymentMethod `json:"payment_method" gorm:"type:varchar(20);not null"`

	// One-shot latch: true means stock has been deducted for this order and
	// not yet restored.
	InventoryUpdated   bool       `json:"inventory_updated" gorm:"default:false"`
	InventoryUpdatedAt *time.Time `json:"inventory_updated_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
