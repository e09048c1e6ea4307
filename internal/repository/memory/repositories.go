package memory

import (
	"github.com/joshnavoa/zakeke/internal/repository"
)

// NewRepositories creates a set of in-memory repositories around products.
// products may be nil when no backing store is configured.
func NewRepositories(products repository.ProductStore) *repository.Repositories {
	return &repository.Repositories{
		Products:     products,
		Customizable: NewCustomizableSet(),
		Cart:         NewCartRepository(),
		Idempotency:  NewIdempotencyRepository(),
	}
}
