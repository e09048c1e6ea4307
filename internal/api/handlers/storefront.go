package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/internal/customizer"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

// HandleStorefrontProduct handles GET /storefront/products/:id for the
// customizer bootstrap. The local catalog answers first; Zakeke is asked
// for products the catalog does not have.
func HandleStorefrontProduct(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		productID := c.Param("id")
		variantID := c.Query("variantId")

		product, err := deps.Catalog.GetProduct(ctx, productID)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"id":       product.ID,
				"name":     product.Name,
				"price":    product.Price,
				"currency": product.Currency,
				"image":    product.Image,
				"variants": deps.Catalog.GetVariants(ctx, productID),
			})
			return
		}

		if deps.Zakeke == nil {
			if errors.IsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}

		info, uerr := deps.Zakeke.GetProductInfo(ctx, productID, variantID)
		if uerr != nil {
			logger.Warn("Product info unavailable from catalog and Zakeke",
				zap.String("product_id", productID),
				zap.NamedError("catalog_error", err),
				zap.NamedError("zakeke_error", uerr),
			)
			if errors.IsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			writeError(c, err, cfg.IsProduction(), logger)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

// HandleCredentials handles GET /api/zakeke/credentials. The secret never
// leaves the server.
func HandleCredentials(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenantId": cfg.Zakeke.TenantID,
			"apiUrl":   cfg.Zakeke.APIURL,
		})
	}
}

// HandleCustomizerSession handles GET /customizer/session: the product
// context from the query string and the URL the customizer iframe opens
func HandleCustomizerSession(cfg *config.Config, deps *Deps, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		pc, _, ok := customizer.ResolveContext(queryPage(c.Request.URL.Query()))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productid is required"})
			return
		}

		iframeURL := ""
		if deps.Zakeke != nil {
			u, err := deps.Zakeke.ConfiguratorURL(c.Request.Context(), pc.ProductID, pc.VariantID, pc.Quantity)
			if err != nil {
				logger.Warn("Configurator URL unavailable, using portal URL", zap.String("product_id", pc.ProductID), zap.Error(err))
			}
			iframeURL = u
		}
		if iframeURL == "" {
			iframeURL = customizer.IframeURL(cfg.Zakeke.PortalURL, cfg.Zakeke.TenantID, pc)
		}

		c.JSON(http.StatusOK, gin.H{
			"productId": pc.ProductID,
			"variantId": pc.VariantID,
			"quantity":  pc.Quantity,
			"iframeUrl": iframeURL,
		})
	}
}

// queryPage exposes a request's query string as the page the customizer
// resolves its product context from
type queryPage url.Values

func (q queryPage) DataAttribute(string) (string, bool) { return "", false }
func (q queryPage) URLParams() url.Values               { return url.Values(q) }
func (q queryPage) CMSData() map[string]string          { return nil }
