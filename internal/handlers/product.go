// internal/handlers/product.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoplane/shoplane-backend/internal/services"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
	}

	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		if categoryID, err := uuid.Parse(categoryIDStr); err == nil {
			searchParams.CategoryID = &categoryID
		}
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseFloat(priceMinStr, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseFloat(priceMaxStr, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	if inStockStr := c.Query("in_stock"); inStockStr != "" {
		if inStock, err := strconv.ParseBool(inStockStr); err == nil {
			searchParams.InStock = &inStock
		}
	}

	// Deleted products are only visible to admins
	if includeDeleted := c.Query("include_deleted"); includeDeleted == "true" {
		if role, _ := utils.GetUserRoleFromContext(c); role == "admin" {
			searchParams.IncludeDeleted = true
		}
	}

	products, total, err := h.productService.SearchProducts(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.CreateProduct(&req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(id, &req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	if err := h.productService.DeleteProduct(id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Product deleted"})
}

// POST /admin/products/:id/restore
func (h *ProductHandler) RestoreProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	if err := h.productService.RestoreProduct(id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Product restored"})
}

// POST /admin/products/upload-images
func (h *ProductHandler) UploadProductImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No images provided", nil)
		return
	}
	if len(files) > 10 {
		utils.BadRequestResponse(c, "Too many images, maximum is 10", nil)
		return
	}

	options := h.storageService.GetDefaultUploadOptions("products")

	uploaded := make([]*services.UploadResult, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to open uploaded file", err.Error())
			return
		}

		if err := h.storageService.ValidateImage(file); err != nil {
			file.Close()
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}

		result, err := h.storageService.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			utils.InternalErrorResponse(c, err.Error())
			return
		}

		uploaded = append(uploaded, result)
	}

	utils.SuccessResponse(c, gin.H{"images": uploaded})
}

// GET /categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategories()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, categories)
}

// POST /admin/categories
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Category name is required", nil)
		return
	}

	category, err := h.productService.CreateCategory(req.Name)
	if err != nil {
		utils.ConflictResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, category)
}
