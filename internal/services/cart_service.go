// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type CartService struct {
	db *gorm.DB
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetCart returns the user's cart lines with live product data. Lines whose
// product has been removed or soft-deleted are deleted from the persisted
// cart as part of the read, so a stale line can never reach checkout.
func (s *CartService) GetCart(userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.db.Where("user_id = ?", userID).
		Preload("Product").
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	valid := items[:0]
	for _, item := range items {
		if item.Product == nil || !item.Product.Purchasable() {
			if err := s.db.Where("id = ?", item.ID).Delete(&models.CartItem{}).Error; err != nil {
				return nil, fmt.Errorf("failed to prune cart item: %w", err)
			}
			continue
		}
		valid = append(valid, item)
	}

	return valid, nil
}

func (s *CartService) AddItem(userID uuid.UUID, req *AddCartItemRequest) (*models.CartItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Only purchasable products may enter the cart.
	var product models.Product
	if err := s.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !product.Purchasable() {
		return nil, ErrProductNotFound
	}

	// One line per product: adding again bumps the quantity.
	var item models.CartItem
	err := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
	if err == nil {
		item.Quantity += req.Quantity
		if err := s.db.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		item.Product = &product
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	item = models.CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	item.Product = &product
	return &item, nil
}

func (s *CartService) UpdateQuantity(userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, errors.New("validation failed: quantity must be at least 1")
	}

	var item models.CartItem
	if err := s.db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("cart item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&item).Update("quantity", quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	item.Quantity = quantity
	return &item, nil
}

func (s *CartService) RemoveItem(userID, itemID uuid.UUID) error {
	res := s.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("cart item not found")
	}
	return nil
}

func (s *CartService) ClearCart(userID uuid.UUID) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// CheckoutLines converts the pruned cart into order lines for PlaceOrder.
func (s *CartService) CheckoutLines(userID uuid.UUID) ([]OrderLine, error) {
	items, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}
