// internal/models/cart.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line of a user's persisted cart. Unlike order items it is
// not a snapshot: price and title always come from the live product, and
// lines whose product disappears are pruned when the cart is read.
//
// Cart lines delete hard, not soft. A tombstone would keep occupying the
// (user, product) unique index and block re-adding the same product.
type CartItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_cart_user_product,unique"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index:idx_cart_user_product,unique"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1;check:quantity >= 1"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
