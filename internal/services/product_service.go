// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/database"
	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Title            string                    `json:"title" validate:"required,min=3,max=255"`
	Description      string                    `json:"description" validate:"required,min=10"`
	OriginalPrice    float64                   `json:"original_price" validate:"required,gt=0"`
	DiscountedPrice  float64                   `json:"discounted_price" validate:"required,gt=0"`
	Image            string                    `json:"image" validate:"required"`
	AdditionalImages []string                  `json:"additional_images,omitempty"`
	Attributes       []models.ProductAttribute `json:"attributes,omitempty"`
	CategoryID       *uuid.UUID                `json:"category_id,omitempty"`
	Stock            int                       `json:"stock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Title            string                    `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description      string                    `json:"description,omitempty" validate:"omitempty,min=10"`
	OriginalPrice    *float64                  `json:"original_price,omitempty" validate:"omitempty,gt=0"`
	DiscountedPrice  *float64                  `json:"discounted_price,omitempty" validate:"omitempty,gt=0"`
	Image            string                    `json:"image,omitempty"`
	AdditionalImages []string                  `json:"additional_images,omitempty"`
	Attributes       []models.ProductAttribute `json:"attributes,omitempty"`
	CategoryID       *uuid.UUID                `json:"category_id,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	PriceMin       *float64   `json:"price_min,omitempty"`
	PriceMax       *float64   `json:"price_max,omitempty"`
	InStock        *bool      `json:"in_stock,omitempty"`
	IncludeDeleted bool       `json:"include_deleted,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// CreateProduct persists the product together with its inventory record.
// Every product gets exactly one record, created here and never deleted.
func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.DiscountedPrice > req.OriginalPrice {
		return nil, errors.New("validation failed: discounted price cannot exceed original price")
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ?", *req.CategoryID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("category not found")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	product := &models.Product{
		Title:            req.Title,
		Description:      req.Description,
		OriginalPrice:    req.OriginalPrice,
		DiscountedPrice:  req.DiscountedPrice,
		Image:            req.Image,
		AdditionalImages: req.AdditionalImages,
		Attributes:       models.ProductAttributes(req.Attributes),
		CategoryID:       req.CategoryID,
		IsDeleted:        false,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		record := &models.InventoryRecord{
			ProductID:         product.ID,
			LowStockThreshold: models.DefaultLowStockThreshold,
		}
		record.ApplyStock(req.Stock)

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create inventory record: %w", err)
		}

		product.Inventory = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("id = ?", id).Preload("Category").Preload("Inventory").First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.OriginalPrice != nil {
		updates["original_price"] = *req.OriginalPrice
	}
	if req.DiscountedPrice != nil {
		updates["discounted_price"] = *req.DiscountedPrice
	}
	if req.Image != "" {
		updates["image"] = req.Image
	}
	if req.AdditionalImages != nil {
		updates["additional_images"] = pq.StringArray(req.AdditionalImages)
	}
	if req.Attributes != nil {
		updates["attributes"] = models.ProductAttributes(req.Attributes)
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}

	// Re-check the price invariant against the resulting pair.
	newOriginal := product.OriginalPrice
	if req.OriginalPrice != nil {
		newOriginal = *req.OriginalPrice
	}
	newDiscounted := product.DiscountedPrice
	if req.DiscountedPrice != nil {
		newDiscounted = *req.DiscountedPrice
	}
	if newDiscounted > newOriginal {
		return nil, errors.New("validation failed: discounted price cannot exceed original price")
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Where("id = ?", id).Preload("Category").Preload("Inventory").First(&product)
	return &product, nil
}

// DeleteProduct soft-deletes the product. Its order-item snapshots stay
// valid and its inventory record is kept so a restore keeps its stock.
func (s *ProductService) DeleteProduct(id uuid.UUID) error {
	res := s.db.Model(&models.Product{}).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *ProductService) RestoreProduct(id uuid.UUID) error {
	res := s.db.Model(&models.Product{}).Where("id = ?", id).Update("is_deleted", false)
	if res.Error != nil {
		return fmt.Errorf("failed to restore product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Category").Preload("Inventory")

	if !params.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.PriceMin != nil {
		query = query.Where("discounted_price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("discounted_price <= ?", *params.PriceMax)
	}

	if params.InStock != nil && *params.InStock {
		query = query.Where("id IN (?)",
			s.db.Model(&models.InventoryRecord{}).Select("product_id").Where("in_stock = ?", true))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "discounted_price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// Categories

func (s *ProductService) CreateCategory(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("validation failed: category name is required")
	}

	category := &models.Category{Name: name}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *ProductService) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}
