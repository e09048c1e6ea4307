package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/api/handlers"
	"github.com/joshnavoa/zakeke/internal/api/middleware"
	"github.com/joshnavoa/zakeke/internal/config"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps *handlers.Deps, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(cfg, logger))
	router.Use(middleware.Diagnostics(logger))
	router.Use(cors.New(corsConfig(cfg)))

	auth := middleware.NewBasicAuth(cfg.Zakeke, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "Zakeke Product Catalog API"})
	})

	// Root answers with API info, or serves products when called with
	// paging/search parameters (authenticated inside the handler)
	router.GET("/", handlers.HandleRoot(cfg, deps, auth, logger))

	// Browser-facing routes used by the customizer bootstrap
	router.GET("/storefront/products/:id", handlers.HandleStorefrontProduct(cfg, deps, logger))
	router.GET("/customizer/session", handlers.HandleCustomizerSession(cfg, deps, logger))

	relay := router.Group("/api/zakeke")
	{
		relay.GET("/credentials", handlers.HandleCredentials(cfg))
		relay.POST("/cart/items", handlers.HandleAddCartItem(cfg, deps, logger))
		relay.PUT("/cart/items/:customizationId", handlers.HandleEditCartItem(cfg, deps, logger))
		relay.GET("/cart/items", handlers.HandleListCartItems(cfg, deps, logger))
		relay.GET("/orders/:id", handlers.HandleGetOrder(cfg, deps, logger))

		orders := relay.Group("")
		orders.Use(middleware.IdempotencyMiddleware(deps.Repos, logger))
		orders.POST("/orders", handlers.HandleCreateOrder(cfg, deps, logger))
	}

	// Catalog routes called by Zakeke with Basic Auth
	catalogRoutes := router.Group("")
	catalogRoutes.Use(auth.Middleware())
	{
		catalogRoutes.GET("/products", handlers.HandleListProducts(cfg, deps, logger))
		catalogRoutes.GET("/products/search", handlers.HandleSearchProducts(cfg, deps, logger))
		catalogRoutes.GET("/products/customizable", handlers.HandleListCustomizable(cfg, deps, logger))
		catalogRoutes.GET("/products/:id/options", handlers.HandleGetProductOptions(cfg, deps, logger))
		catalogRoutes.POST("/products/:id/customizable", handlers.HandleMarkCustomizable(cfg, deps, logger))
		catalogRoutes.DELETE("/products/:id/customizable", handlers.HandleUnmarkCustomizable(cfg, deps, logger))
		catalogRoutes.GET("/schema", handlers.HandleGetSchema(cfg, deps, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics. Panic
// details are only returned outside production.
func customRecovery(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		body := gin.H{"error": "internal server error"}
		if !cfg.IsProduction() {
			body["details"] = fmt.Sprintf("%v", recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

func corsConfig(cfg *config.Config) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.CORSOrigins
		cc.AllowCredentials = true
	}
	return cc
}
