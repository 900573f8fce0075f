// internal/models/product.go
package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;size:100;not null"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

// ProductAttribute is a name/value pair shown on the product page
// ("Material: cotton"). Stored as a jsonb array.
type ProductAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProductAttributes []ProductAttribute

func (a ProductAttributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *ProductAttributes) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return nil
}

type Product struct {
	BaseModel
	Title            string            `json:"title" gorm:"size:255;not null"`
	Description      string            `json:"description" gorm:"type:text"`
	OriginalPrice    float64           `json:"original_price" gorm:"type:decimal(10,2);not null"`
	DiscountedPrice  float64           `json:"discounted_price" gorm:"type:decimal(10,2);not null"`
	Image            string            `json:"image" gorm:"size:512"`
	AdditionalImages pq.StringArray    `json:"additional_images" gorm:"type:text[]"`
	Attributes       ProductAttributes `json:"attributes" gorm:"type:jsonb"`
	CategoryID       *uuid.UUID        `json:"category_id" gorm:"type:uuid;index"`
	IsDeleted        bool              `json:"is_deleted" gorm:"default:false;index"`

	// Relationships
	Category  *Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Inventory *InventoryRecord `json:"inventory,omitempty" gorm:"foreignKey:ProductID"`
}

// Purchasable reports whether the product may appear in a cart or order.
func (p *Product) Purchasable() bool {
	return !p.IsDeleted
}
