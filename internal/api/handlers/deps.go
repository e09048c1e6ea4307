package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/internal/service"
	"github.com/joshnavoa/zakeke/internal/zakeke"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

// ZakekeAPI is the part of the Zakeke client the browser-facing routes use
type ZakekeAPI interface {
	GetProductInfo(ctx context.Context, productID, variantID string) (*zakeke.ProductInfo, error)
	ConfiguratorURL(ctx context.Context, productID, variantID string, quantity int) (string, error)
	ListCartItems(ctx context.Context) ([]json.RawMessage, error)
}

// Deps are the collaborators shared by all handlers. Zakeke may be nil.
type Deps struct {
	Repos   *repository.Repositories
	Catalog *catalog.Source
	Cart    *service.CartService
	Zakeke  ZakekeAPI
}

// writeError maps the error taxonomy onto a status code and {error} body
func writeError(c *gin.Context, err error, production bool, logger *zap.Logger) {
	var (
		notFound   *errors.ErrNotFound
		validation *errors.ErrValidation
		upstream   *errors.ErrUpstream
	)
	switch {
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(notFound.Resource)})
	case stderrors.As(err, &validation):
		body := gin.H{"error": validation.Error()}
		if len(validation.Fields) > 0 {
			body["fields"] = validation.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case stderrors.As(err, &upstream):
		logger.Error("Zakeke request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		body := gin.H{"error": "Zakeke request failed"}
		if upstream.Status > 0 {
			body["status"] = upstream.Status
		}
		if !production {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusBadGateway, body)
	default:
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		body := gin.H{"error": "internal error"}
		if !production {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func notFoundMessage(resource string) string {
	if resource == "" {
		return "Not found"
	}
	return strings.ToUpper(resource[:1]) + resource[1:] + " not found"
}

// queryInt returns the integer query parameter, 0 when absent or malformed
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}
