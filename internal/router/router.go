// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/config"
	"github.com/shoplane/shoplane-backend/internal/handlers"
	"github.com/shoplane/shoplane-backend/internal/middleware"
	"github.com/shoplane/shoplane-backend/internal/services"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db)
	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db, notificationService)
	inventoryService := services.NewInventoryService(db)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService, inventoryService, cartService)
	adminHandler := handlers.NewAdminHandler(adminService, inventoryService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
			auth.PUT("/address", middleware.AuthRequired(), authHandler.UpdateAddress)
		}

		// Product catalog (public browsing)
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)
		}

		// Category routes (public)
		categories := v1.Group("/categories")
		{
			categories.GET("", productHandler.GetCategories)
		}

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateQuantity)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", middleware.CheckoutRateLimit(), orderHandler.PlaceOrder)
			orders.POST("/checkout", middleware.CheckoutRateLimit(), orderHandler.Checkout)
			orders.GET("", orderHandler.GetMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			// Dashboard
			dashboard := admin.Group("/dashboard")
			{
				dashboard.GET("/stats", adminHandler.GetDashboardStats)
			}

			// User management
			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PATCH("/:id/role", adminHandler.UpdateUserRole)
				adminUsers.PATCH("/:id/status", adminHandler.UpdateUserStatus)
			}

			// Catalog management
			adminProducts := admin.Group("/products")
			{
				adminProducts.POST("", productHandler.CreateProduct)
				adminProducts.PUT("/:id", productHandler.UpdateProduct)
				adminProducts.DELETE("/:id", productHandler.DeleteProduct)
				adminProducts.POST("/:id/restore", productHandler.RestoreProduct)
				adminProducts.POST("/upload-images", middleware.UploadRateLimit(), productHandler.UploadProductImages)
			}

			adminCategories := admin.Group("/categories")
			{
				adminCategories.POST("", productHandler.CreateCategory)
			}

			// Order management
			adminOrders := admin.Group("/orders")
			{
				adminOrders.GET("", orderHandler.SearchOrders)
				adminOrders.GET("/recent", adminHandler.GetRecentOrders)
				adminOrders.PATCH("/:id", orderHandler.UpdateOrderField)
				adminOrders.POST("/:id/inventory/deduct", orderHandler.DeductInventory)
				adminOrders.POST("/:id/inventory/restore", orderHandler.RestoreInventory)
			}

			// Inventory management
			adminInventory := admin.Group("/inventory")
			{
				adminInventory.GET("/low-stock", adminHandler.GetLowStock)
				adminInventory.GET("/:productId", adminHandler.GetInventory)
				adminInventory.PUT("/:productId", adminHandler.SetStock)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
