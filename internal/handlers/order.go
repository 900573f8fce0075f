// internal/handlers/order.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/services"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type OrderHandler struct {
	orderService     *services.OrderService
	inventoryService *services.InventoryService
	cartService      *services.CartService
}

func NewOrderHandler(orderService *services.OrderService, inventoryService *services.InventoryService, cartService *services.CartService) *OrderHandler {
	return &OrderHandler{
		orderService:     orderService,
		inventoryService: inventoryService,
		cartService:      cartService,
	}
}

// POST /orders
// Places an order from an explicit item selection (the buy-now path).
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.PlaceOrder(userID, &req)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}

// POST /orders/checkout
// Places an order from the user's persisted cart, then empties the cart.
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		ShippingAddress string               `json:"shipping_address"`
		PaymentMethod   models.PaymentMethod `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	lines, err := h.cartService.CheckoutLines(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	if len(lines) == 0 {
		utils.BadRequestResponse(c, "Cart is empty", nil)
		return
	}

	order, err := h.orderService.PlaceOrder(userID, &services.PlaceOrderRequest{
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	// The cart has served its purpose once the order exists. A failure here
	// leaves stale lines behind but never loses the order.
	if err := h.cartService.ClearCart(userID); err != nil {
		utils.SuccessResponseWithMeta(c, order, gin.H{"warning": "cart could not be cleared"})
		return
	}

	utils.CreatedResponse(c, order)
}

// GET /orders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.GetUserOrders(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /orders/:id
// Owners see their own orders; admins see any order.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	order, err := h.orderService.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "Order")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	role, _ := utils.GetUserRoleFromContext(c)
	if order.UserID != userID && role != string(models.UserRoleAdmin) {
		utils.ForbiddenResponse(c, "You do not have access to this order")
		return
	}

	utils.SuccessResponse(c, order)
}

// GET /admin/orders
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.OrderSearchParams{
		PaginationParams: params,
	}

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			searchParams.UserID = &userID
		}
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.OrderStatus(statusStr)
		if !status.Valid() {
			utils.BadRequestResponse(c, "Invalid order status filter", nil)
			return
		}
		searchParams.Status = &status
	}

	if paymentStr := c.Query("payment_status"); paymentStr != "" {
		payment := models.PaymentStatus(paymentStr)
		if !payment.Valid() {
			utils.BadRequestResponse(c, "Invalid payment status filter", nil)
			return
		}
		searchParams.PaymentStatus = &payment
	}

	if fromStr := c.Query("date_from"); fromStr != "" {
		if from, err := time.Parse(time.RFC3339, fromStr); err == nil {
			searchParams.DateFrom = &from
		}
	}

	if toStr := c.Query("date_to"); toStr != "" {
		if to, err := time.Parse(time.RFC3339, toStr); err == nil {
			searchParams.DateTo = &to
		}
	}

	orders, total, err := h.orderService.SearchOrders(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}

// PATCH /admin/orders/:id
// Updates a single field of the order, mirroring how the admin panel edits
// status and payment status independently.
func (h *OrderHandler) UpdateOrderField(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Both field and value are required", nil)
		return
	}

	order, err := h.orderService.UpdateOrderField(orderID, strings.TrimSpace(req.Field), strings.TrimSpace(req.Value))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/inventory/deduct
func (h *OrderHandler) DeductInventory(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	order, err := h.inventoryService.DeductInventory(orderID)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/inventory/restore
func (h *OrderHandler) RestoreInventory(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	order, err := h.inventoryService.RestoreInventory(orderID)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// writeOrderError maps order and inventory service errors onto HTTP
// responses. Shortages carry the per-item detail so the admin panel can
// show which products ran out.
func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	var shortage *services.StockShortageError
	switch {
	case errors.As(err, &shortage):
		utils.ErrorResponse(c, http.StatusConflict, "INSUFFICIENT_STOCK", shortage.Error(), shortage.Items)
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "Order")
	case errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrNothingToRestore):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		utils.UnprocessableResponse(c, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, services.ErrCardNotSupported):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "User")
	default:
		if strings.Contains(err.Error(), "validation failed") {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
	}
}
