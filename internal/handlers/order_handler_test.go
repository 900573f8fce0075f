// internal/handlers/order_handler_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/services"
)

type OrderHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	customer *models.User
	admin    *models.User
}

// asUser stands in for the auth middleware, injecting the identity the
// handlers read from the request context.
func asUser(user **models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", (*user).ID.String())
		c.Set("email", (*user).Email)
		c.Set("role", string((*user).Role))
		c.Next()
	}
}

func (s *OrderHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	sqlDB, err := db.DB()
	require.NoError(s.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(s.T(), db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Product{},
		&models.InventoryRecord{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
	))
	s.db = db

	s.customer = s.createUser(models.UserRoleCustomer)
	s.admin = s.createUser(models.UserRoleAdmin)

	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db, nil)
	inventoryService := services.NewInventoryService(db)
	handler := NewOrderHandler(orderService, inventoryService, cartService)

	s.router = gin.New()

	orders := s.router.Group("/orders", asUser(&s.customer))
	{
		orders.POST("", handler.PlaceOrder)
		orders.GET("/:id", handler.GetOrder)
	}

	admin := s.router.Group("/admin/orders", asUser(&s.admin))
	{
		admin.PATCH("/:id", handler.UpdateOrderField)
		admin.POST("/:id/inventory/deduct", handler.DeductInventory)
		admin.POST("/:id/inventory/restore", handler.RestoreInventory)
	}
}

func (s *OrderHandlerTestSuite) createUser(role models.UserRole) *models.User {
	user := &models.User{
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Test User",
		Role:        role,
		Status:      models.UserStatusActive,
	}
	require.NoError(s.T(), user.SetPassword("TestPass123!"))
	require.NoError(s.T(), s.db.Create(user).Error)
	return user
}

func (s *OrderHandlerTestSuite) createProduct(title string, price float64, stock int) *models.Product {
	product := &models.Product{
		Title:           title,
		Description:     "A product used in tests",
		OriginalPrice:   price,
		DiscountedPrice: price,
		Image:           "https://cdn.example.com/img.jpg",
	}
	require.NoError(s.T(), s.db.Create(product).Error)

	record := &models.InventoryRecord{
		ProductID:         product.ID,
		LowStockThreshold: models.DefaultLowStockThreshold,
	}
	record.ApplyStock(stock)
	require.NoError(s.T(), s.db.Create(record).Error)
	return product
}

func (s *OrderHandlerTestSuite) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func (s *OrderHandlerTestSuite) placeOrder(productID uuid.UUID, quantity int) uuid.UUID {
	w, resp := s.do("POST", "/orders", map[string]interface{}{
		"items":            []map[string]interface{}{{"product_id": productID, "quantity": quantity}},
		"shipping_address": "1 Test Street",
		"payment_method":   "cash",
	})
	require.Equal(s.T(), http.StatusCreated, w.Code)

	data := resp["data"].(map[string]interface{})
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(s.T(), err)
	return id
}

func (s *OrderHandlerTestSuite) TestPlaceOrderReturnsCreated() {
	product := s.createProduct("Desk Lamp", 49.99, 10)

	w, resp := s.do("POST", "/orders", map[string]interface{}{
		"items":            []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
		"shipping_address": "1 Test Street",
		"payment_method":   "cash",
	})

	s.Equal(http.StatusCreated, w.Code)
	s.True(resp["success"].(bool))

	data := resp["data"].(map[string]interface{})
	s.Equal("pending", data["status"])
	s.Equal("unpaid", data["payment_status"])
}

func (s *OrderHandlerTestSuite) TestPlaceOrderCardRejected() {
	product := s.createProduct("Desk Lamp", 49.99, 10)

	w, resp := s.do("POST", "/orders", map[string]interface{}{
		"items":            []map[string]interface{}{{"product_id": product.ID, "quantity": 1}},
		"shipping_address": "1 Test Street",
		"payment_method":   "card",
	})

	s.Equal(http.StatusBadRequest, w.Code)
	s.False(resp["success"].(bool))
}

func (s *OrderHandlerTestSuite) TestDeductHappyPathAndConflictOnRepeat() {
	product := s.createProduct("Desk Lamp", 49.99, 10)
	orderID := s.placeOrder(product.ID, 3)

	w, resp := s.do("POST", fmt.Sprintf("/admin/orders/%s/inventory/deduct", orderID), nil)
	s.Equal(http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	s.True(data["inventory_updated"].(bool))

	w, resp = s.do("POST", fmt.Sprintf("/admin/orders/%s/inventory/deduct", orderID), nil)
	s.Equal(http.StatusConflict, w.Code)
	s.False(resp["success"].(bool))
}

func (s *OrderHandlerTestSuite) TestDeductShortageReturnsConflictWithDetails() {
	product := s.createProduct("Desk Lamp", 49.99, 1)
	orderID := s.placeOrder(product.ID, 5)

	w, resp := s.do("POST", fmt.Sprintf("/admin/orders/%s/inventory/deduct", orderID), nil)

	s.Equal(http.StatusConflict, w.Code)
	errObj := resp["error"].(map[string]interface{})
	s.Equal("INSUFFICIENT_STOCK", errObj["code"])
	s.Contains(errObj["message"], "Desk Lamp (Available: 1)")
	s.NotEmpty(errObj["details"])
}

func (s *OrderHandlerTestSuite) TestDeductCancelledOrderUnprocessable() {
	product := s.createProduct("Desk Lamp", 49.99, 10)
	orderID := s.placeOrder(product.ID, 1)

	w, _ := s.do("PATCH", fmt.Sprintf("/admin/orders/%s", orderID), map[string]interface{}{
		"field": "status",
		"value": "cancelled",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	w, resp := s.do("POST", fmt.Sprintf("/admin/orders/%s/inventory/deduct", orderID), nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	errObj := resp["error"].(map[string]interface{})
	s.Equal("INVALID_STATE", errObj["code"])
}

func (s *OrderHandlerTestSuite) TestRestoreWithoutDeductConflict() {
	product := s.createProduct("Desk Lamp", 49.99, 10)
	orderID := s.placeOrder(product.ID, 1)

	w, _ := s.do("POST", fmt.Sprintf("/admin/orders/%s/inventory/restore", orderID), nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *OrderHandlerTestSuite) TestUnknownOrderNotFound() {
	w, _ := s.do("POST", fmt.Sprintf("/admin/orders/%s/inventory/deduct", uuid.New()), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *OrderHandlerTestSuite) TestUpdateOrderFieldValidation() {
	product := s.createProduct("Desk Lamp", 49.99, 10)
	orderID := s.placeOrder(product.ID, 1)

	w, resp := s.do("PATCH", fmt.Sprintf("/admin/orders/%s", orderID), map[string]interface{}{
		"field": "paymentStatus",
		"value": "paid",
	})
	s.Equal(http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	s.Equal("paid", data["payment_status"])

	w, _ = s.do("PATCH", fmt.Sprintf("/admin/orders/%s", orderID), map[string]interface{}{
		"field": "status",
		"value": "misplaced",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *OrderHandlerTestSuite) TestGetOrderOwnershipEnforced() {
	product := s.createProduct("Desk Lamp", 49.99, 10)
	orderID := s.placeOrder(product.ID, 1)

	w, _ := s.do("GET", fmt.Sprintf("/orders/%s", orderID), nil)
	s.Equal(http.StatusOK, w.Code)

	// Another customer cannot read this order
	stranger := s.createUser(models.UserRoleCustomer)
	s.customer = stranger
	w, _ = s.do("GET", fmt.Sprintf("/orders/%s", orderID), nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}
