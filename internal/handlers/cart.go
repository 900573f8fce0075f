// internal/handlers/cart.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoplane/shoplane-backend/internal/services"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.cartService.GetCart(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"items": items})
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.cartService.AddItem(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, item)
}

// PUT /cart/items/:id
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid cart item ID", nil)
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Quantity must be at least 1", nil)
		return
	}

	item, err := h.cartService.UpdateQuantity(userID, itemID, req.Quantity)
	if err != nil {
		utils.NotFoundResponse(c, "Cart item")
		return
	}

	utils.SuccessResponse(c, item)
}

// DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid cart item ID", nil)
		return
	}

	if err := h.cartService.RemoveItem(userID, itemID); err != nil {
		utils.NotFoundResponse(c, "Cart item")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Item removed"})
}

// DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(userID); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Cart cleared"})
}
