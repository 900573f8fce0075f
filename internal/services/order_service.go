// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type OrderService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

// OrderLine is one requested line of a checkout: product reference plus
// quantity. The snapshot fields (title, price, image) are resolved from the
// live product exactly once, at placement.
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type PlaceOrderRequest struct {
	Items           []OrderLine          `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string               `json:"shipping_address" validate:"required"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" validate:"required"`
}

type OrderSearchParams struct {
	utils.PaginationParams
	UserID        *uuid.UUID            `json:"user_id,omitempty"`
	Status        *models.OrderStatus   `json:"status,omitempty"`
	PaymentStatus *models.PaymentStatus `json:"payment_status,omitempty"`
	DateFrom      *time.Time            `json:"date_from,omitempty"`
	DateTo        *time.Time            `json:"date_to,omitempty"`
}

func NewOrderService(db *gorm.DB, notificationService *NotificationService) *OrderService {
	return &OrderService{
		db:                  db,
		notificationService: notificationService,
	}
}

// PlaceOrder turns a selection into a persisted pending/unpaid order. Stock
// is not touched here; deduction is a separate admin action.
func (s *OrderService) PlaceOrder(userID uuid.UUID, req *PlaceOrderRequest) (*models.Order, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, errors.New("validation failed: shipping address is required")
	}

	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("validation failed: unknown payment method %q", req.PaymentMethod)
	}

	// Online payment has no processing path; reject before anything persists.
	if req.PaymentMethod == models.PaymentMethodCard {
		return nil, ErrCardNotSupported
	}

	// Verify the buyer exists and is active
	var buyer models.User
	if err := s.db.Where("id = ?", userID).First(&buyer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if buyer.Status != models.UserStatusActive {
		return nil, errors.New("account is not active")
	}

	// Resolve every line against the live catalog and freeze the snapshot.
	items := make([]models.OrderItem, 0, len(req.Items))
	var total float64
	for _, line := range req.Items {
		var product models.Product
		if err := s.db.Where("id = ?", line.ProductID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("validation failed: product %s is no longer available", line.ProductID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}

		if !product.Purchasable() {
			return nil, fmt.Errorf("validation failed: product %q is no longer available", product.Title)
		}

		// Missing price resolves to 0 here, once, not in display code.
		price := product.DiscountedPrice

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     price,
			Quantity:  line.Quantity,
			Image:     product.Image,
		})
		total += price * float64(line.Quantity)
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		TotalPrice:      roundToCents(total),
		ShippingAddress: req.ShippingAddress,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		PaymentMethod:   req.PaymentMethod,
	}

	if err := s.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Confirmation email is fire-and-forget; the order stands either way.
	if s.notificationService != nil {
		go s.notificationService.SendOrderConfirmation(&buyer, order)
	}

	return order, nil
}

func (s *OrderService) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Where("id = ?", orderID).Preload("Items").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetUserOrders(userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID).Preload("Items")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_price", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) SearchOrders(params OrderSearchParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Items").Preload("User")

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}

	if params.DateFrom != nil {
		query = query.Where("created_at >= ?", *params.DateFrom)
	}

	if params.DateTo != nil {
		query = query.Where("created_at <= ?", *params.DateTo)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(CAST(id AS TEXT)) LIKE ? OR LOWER(CAST(user_id AS TEXT)) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_price", "status", "payment_status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderField moves status or paymentStatus on a single order. The
// value is checked against the enum; combinations are deliberately not
// cross-validated, any status can follow any other. An admin can set
// delivered on an unpaid order.
func (s *OrderService) UpdateOrderField(orderID uuid.UUID, field, value string) (*models.Order, error) {
	var order models.Order
	if err := s.db.Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := make(map[string]interface{})
	switch field {
	case "status":
		status := models.OrderStatus(value)
		if !status.Valid() {
			return nil, fmt.Errorf("validation failed: unknown order status %q", value)
		}
		updates["status"] = status
	case "paymentStatus", "payment_status":
		status := models.PaymentStatus(value)
		if !status.Valid() {
			return nil, fmt.Errorf("validation failed: unknown payment status %q", value)
		}
		updates["payment_status"] = status
	default:
		return nil, fmt.Errorf("validation failed: field %q is not updatable", field)
	}

	if err := s.db.Model(&order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := s.db.Where("id = ?", orderID).Preload("Items").First(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
