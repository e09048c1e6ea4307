package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/api/middleware"
	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

const serviceName = "Zakeke Product Catalog API"

// HandleListProducts handles GET /products?page&limit&sort&order
func HandleListProducts(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := deps.Catalog.ListProducts(c.Request.Context(), listParams(c))
		renderPage(c, cfg, out, logger)
	}
}

// HandleSearchProducts handles GET /products/search?q&page&limit
func HandleSearchProducts(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := deps.Catalog.SearchProducts(c.Request.Context(), c.Query("q"), queryInt(c, "page"), queryInt(c, "limit"))
		renderPage(c, cfg, out, logger)
	}
}

// HandleRoot answers GET / with the API info, or serves the catalog when
// Zakeke calls the base URL with paging or search parameters. Those calls
// are authenticated here since the route itself is public.
func HandleRoot(cfg *config.Config, deps *Deps, auth *middleware.BasicAuth, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := firstQuery(c, "search", "q")
		if search == "" && c.Query("page") == "" && c.Query("limit") == "" {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": serviceName,
				"endpoints": gin.H{
					"products":     "/products",
					"search":       "/products/search",
					"options":      "/products/:id/options",
					"customizable": "/products/customizable",
					"health":       "/health",
				},
				"message": "Use /products endpoint to fetch products",
			})
			return
		}

		if !auth.Authorize(c) {
			return
		}

		var out catalog.Outcome[domain.PaginatedResult]
		if search != "" {
			out = deps.Catalog.SearchProducts(c.Request.Context(), search, queryInt(c, "page"), queryInt(c, "limit"))
		} else {
			out = deps.Catalog.ListProducts(c.Request.Context(), listParams(c))
		}
		renderPage(c, cfg, out, logger)
	}
}

// HandleGetProductOptions handles GET /products/:id/options
func HandleGetProductOptions(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("id")
		if _, err := deps.Catalog.GetProduct(c.Request.Context(), productID); err != nil {
			if errors.IsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"productId": productID,
			"options":   deps.Catalog.GetVariants(c.Request.Context(), productID),
		})
	}
}

// HandleMarkCustomizable handles POST /products/:id/customizable
func HandleMarkCustomizable(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("id")
		if err := deps.Repos.Customizable.Mark(c.Request.Context(), productID); err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		logger.Info("Product marked as customizable", zap.String("product_id", productID))
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Product " + productID + " marked as customizable",
			"productId": productID,
		})
	}
}

// HandleUnmarkCustomizable handles DELETE /products/:id/customizable
func HandleUnmarkCustomizable(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("id")
		if err := deps.Repos.Customizable.Unmark(c.Request.Context(), productID); err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		logger.Info("Product unmarked as customizable", zap.String("product_id", productID))
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Product " + productID + " unmarked as customizable",
			"productId": productID,
		})
	}
}

// HandleListCustomizable handles GET /products/customizable
func HandleListCustomizable(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := deps.Repos.Customizable.List(c.Request.Context())
		if err != nil {
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"productIds": ids})
	}
}

// HandleGetSchema handles GET /schema: one sample row and the column
// mappings the normalizer would pick
func HandleGetSchema(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !deps.Catalog.Configured() {
			c.JSON(http.StatusOK, gin.H{
				"error":   "Store not configured",
				"message": "Set SUPABASE_URL and SUPABASE_ANON_KEY, DB_HOST or CATALOG_SEED_FILE",
			})
			return
		}

		report, err := deps.Catalog.InspectSchema(c.Request.Context())
		if err != nil {
			if errors.IsNotFound(err) {
				c.JSON(http.StatusOK, gin.H{
					"message":    "No products found in table",
					"suggestion": "Add at least one product to see the schema",
				})
				return
			}
			logger.Error("Schema inspection failed", zap.Error(err))
			body := gin.H{"error": "Database error"}
			if !cfg.IsProduction() {
				body["message"] = err.Error()
			}
			c.JSON(http.StatusInternalServerError, body)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"table":             report.Table,
			"totalColumns":      report.TotalColumns,
			"columns":           report.Columns,
			"sampleProduct":     report.SampleProduct,
			"suggestedMappings": report.SuggestedMappings,
			"normalized":        report.Normalized,
		})
	}
}

// renderPage writes a catalog page in the configured response shape. A
// store fallback is a 200 with no products unless strict errors are on.
func renderPage(c *gin.Context, cfg *config.Config, out catalog.Outcome[domain.PaginatedResult], logger *zap.Logger) {
	if out.Fallback && cfg.Catalog.StrictErrors {
		body := gin.H{"error": "Failed to fetch products"}
		if !cfg.IsProduction() && out.Cause != nil {
			body["details"] = out.Cause.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	res := out.Value
	logger.Debug("Serving catalog page",
		zap.Int("count", len(res.Items)),
		zap.Int("total", res.Total),
		zap.Int("page", res.Page),
		zap.Bool("fallback", out.Fallback),
	)

	if cfg.Catalog.ResponseShape == domain.ResponseShapeWrapped {
		c.JSON(http.StatusOK, gin.H{
			"products": res.Items,
			"pagination": gin.H{
				"page":       res.Page,
				"limit":      res.Limit,
				"total":      res.Total,
				"totalPages": res.TotalPages,
			},
		})
		return
	}
	c.JSON(http.StatusOK, res.Items)
}

func listParams(c *gin.Context) catalog.ListParams {
	return catalog.ListParams{
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
		SortField:     strings.TrimSpace(c.Query("sort")),
		SortDirection: domain.ParseSortDirection(c.Query("order")),
	}
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}
