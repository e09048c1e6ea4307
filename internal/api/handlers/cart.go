package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/api/middleware"
	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/internal/service"
)

// HandleAddCartItem handles POST /api/zakeke/cart/items
func HandleAddCartItem(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		item, err := deps.Cart.AddItem(c.Request.Context(), req)
		if err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
	}
}

// HandleEditCartItem handles PUT /api/zakeke/cart/items/:customizationId
func HandleEditCartItem(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.EditItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		item, err := deps.Cart.EditItem(c.Request.Context(), c.Param("customizationId"), req)
		if err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
	}
}

// HandleListCartItems handles GET /api/zakeke/cart/items?cartId=. Without
// a cartId the Zakeke cart itself is listed.
func HandleListCartItems(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Query("cartId")
		if cartID == "" {
			if deps.Zakeke == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cartId is required"})
				return
			}
			items, err := deps.Zakeke.ListCartItems(c.Request.Context())
			if err != nil {
				writeError(c, err, cfg.IsProduction(), logger)
				return
			}
			c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
			return
		}
		items, err := deps.Cart.ListItems(c.Request.Context(), cartID)
		if err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cartId": cartID, "items": items, "count": len(items)})
	}
}

// HandleCreateOrder handles POST /api/zakeke/orders. A replay with the same
// Idempotency-Key returns the order created the first time.
func HandleCreateOrder(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, requestHash, existing, isExisting := middleware.GetIdempotencyInfo(c)
		if isExisting {
			logger.Info("Returning order for replayed idempotency key", zap.String("order_id", existing.OrderID))
			c.JSON(http.StatusOK, gin.H{"success": true, "orderId": existing.OrderID, "orderNumber": existing.OrderNumber})
			return
		}

		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		result, err := deps.Cart.Checkout(c.Request.Context(), req)
		if err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}

		if key != "" && deps.Repos.Idempotency != nil {
			record := &repository.IdempotencyRecord{Key: key, RequestHash: requestHash, Result: result}
			if err := deps.Repos.Idempotency.Create(c.Request.Context(), record); err != nil {
				logger.Warn("Order created but idempotency key not stored", zap.String("order_id", result.OrderID), zap.Error(err))
			}
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "orderId": result.OrderID, "orderNumber": result.OrderNumber})
	}
}

// HandleGetOrder handles GET /api/zakeke/orders/:id
func HandleGetOrder(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := deps.Cart.OrderStatus(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		c.Data(http.StatusOK, "application/json", order)
	}
}
