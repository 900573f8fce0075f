// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type AdminService struct {
	db *gorm.DB
}

type AdminDashboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	ActiveUsers       int64   `json:"active_users"`
	NewUsersThisMonth int64   `json:"new_users_this_month"`
	TotalProducts     int64   `json:"total_products"`
	DeletedProducts   int64   `json:"deleted_products"`
	TotalOrders       int64   `json:"total_orders"`
	PendingOrders     int64   `json:"pending_orders"`
	OrdersThisMonth   int64   `json:"orders_this_month"`
	TotalRevenue      float64 `json:"total_revenue"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`
	LowStockProducts  int64   `json:"low_stock_products"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role          *models.UserRole   `json:"role,omitempty"`
	Status        *models.UserStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	// User statistics
	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	// Catalog statistics
	s.db.Model(&models.Product{}).Where("is_deleted = ?", false).Count(&stats.TotalProducts)
	s.db.Model(&models.Product{}).Where("is_deleted = ?", true).Count(&stats.DeletedProducts)
	s.db.Model(&models.InventoryRecord{}).Where("stock <= low_stock_threshold").Count(&stats.LowStockProducts)

	// Order statistics
	s.db.Model(&models.Order{}).Count(&stats.TotalOrders)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&stats.PendingOrders)
	s.db.Model(&models.Order{}).Where("created_at >= ?", monthStart).Count(&stats.OrdersThisMonth)

	// Revenue counts only orders that were both delivered and paid.
	s.db.Model(&models.Order{}).
		Where("status = ? AND payment_status = ?", models.OrderStatusDelivered, models.PaymentStatusPaid).
		Select("COALESCE(SUM(total_price), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Order{}).
		Where("status = ? AND payment_status = ? AND created_at >= ?",
			models.OrderStatusDelivered, models.PaymentStatusPaid, monthStart).
		Select("COALESCE(SUM(total_price), 0)").Scan(&stats.MonthlyRevenue)

	return stats, nil
}

// User management
func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}

	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "email", "role", "status", "last_login_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserRole(userID uuid.UUID, role models.UserRole) (*models.User, error) {
	if role != models.UserRoleCustomer && role != models.UserRoleAdmin {
		return nil, fmt.Errorf("validation failed: unknown role %q", role)
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	user.Role = role
	return &user, nil
}

func (s *AdminService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return nil, fmt.Errorf("validation failed: unknown status %q", status)
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&user).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	user.Status = status
	return &user, nil
}

// GetRecentOrders lists the newest orders for the dashboard panel.
func (s *AdminService) GetRecentOrders(limit int) ([]models.Order, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var orders []models.Order
	if err := s.db.Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent orders: %w", err)
	}

	return orders, nil
}
