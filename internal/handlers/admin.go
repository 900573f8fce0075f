// internal/handlers/admin.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/services"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type AdminHandler struct {
	adminService     *services.AdminService
	inventoryService *services.InventoryService
}

func NewAdminHandler(adminService *services.AdminService, inventoryService *services.InventoryService) *AdminHandler {
	return &AdminHandler{
		adminService:     adminService,
		inventoryService: inventoryService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{
		PaginationParams: params,
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		filter.Role = &role
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.UserStatus(statusStr)
		filter.Status = &status
	}

	users, total, err := h.adminService.GetUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(users, total, params)
	utils.PaginatedResponse(c, result)
}

// PATCH /admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req struct {
		Role models.UserRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Role is required", nil)
		return
	}

	user, err := h.adminService.UpdateUserRole(userID, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, user)
}

// PATCH /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Status is required", nil)
		return
	}

	user, err := h.adminService.UpdateUserStatus(userID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, user)
}

// GET /admin/orders/recent
func (h *AdminHandler) GetRecentOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, err := h.adminService.GetRecentOrders(limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, orders)
}

// GET /admin/inventory/:productId
func (h *AdminHandler) GetInventory(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	record, err := h.inventoryService.GetByProduct(productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Inventory record")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, record)
}

// PUT /admin/inventory/:productId
func (h *AdminHandler) SetStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req struct {
		Stock             int `json:"stock" binding:"min=0"`
		LowStockThreshold int `json:"low_stock_threshold"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Stock must be zero or positive", nil)
		return
	}

	record, err := h.inventoryService.SetStock(productID, req.Stock, req.LowStockThreshold)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Inventory record")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, record)
}

// GET /admin/inventory/low-stock
func (h *AdminHandler) GetLowStock(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, err := h.inventoryService.GetLowStock(limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, records)
}
