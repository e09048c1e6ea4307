package repository

import (
	"context"

	"github.com/joshnavoa/zakeke/internal/domain"
)

// SearchColumns are matched case-insensitively (OR) by ProductQuery.Search
var SearchColumns = []string{"name", "description", "sku"}

// ProductQuery is one page request against the products table
type ProductQuery struct {
	// Search is a case-insensitive substring matched against SearchColumns;
	// empty means no filter
	Search    string
	SortField string
	SortDir   domain.SortDirection
	Offset    int
	Limit     int
}

// ProductStore is the backing-store query contract. Rows are returned raw;
// normalization happens in the catalog package.
type ProductStore interface {
	// QueryProducts returns one page of rows plus the exact total matching the filter
	QueryProducts(ctx context.Context, q ProductQuery) ([]domain.Row, int, error)
	// GetProduct returns *errors.ErrNotFound when no row has this id
	GetProduct(ctx context.Context, id string) (domain.Row, error)
	ListVariants(ctx context.Context, productID string) ([]domain.Row, error)
	// SampleProduct returns any one row, *errors.ErrNotFound when the table is empty
	SampleProduct(ctx context.Context) (domain.Row, error)
	// Table is the products table name, for diagnostics
	Table() string
}

// CustomizableSet is the allow-list of product ids flagged as customizable.
// Mark and Unmark are idempotent.
type CustomizableSet interface {
	Mark(ctx context.Context, productID string) error
	Unmark(ctx context.Context, productID string) error
	Contains(ctx context.Context, productID string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// CartRepository keeps the customized items relayed from the customizer
type CartRepository interface {
	Add(ctx context.Context, item *domain.CartItem) error
	GetByCustomizationID(ctx context.Context, customizationID string) (*domain.CartItem, error)
	Update(ctx context.Context, item *domain.CartItem) error
	ListByCart(ctx context.Context, cartID string) ([]*domain.CartItem, error)
	ClearCart(ctx context.Context, cartID string) error
}

// IdempotencyRecord is a stored checkout answer for an Idempotency-Key
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Result      domain.OrderResult
}

// IdempotencyRepository defines idempotency key data access methods
type IdempotencyRepository interface {
	// GetByKey returns (nil, nil) when the key is unknown
	GetByKey(ctx context.Context, key string) (*IdempotencyRecord, error)
	Create(ctx context.Context, record *IdempotencyRecord) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Products     ProductStore // nil when no backing store is configured
	Customizable CustomizableSet
	Cart         CartRepository
	Idempotency  IdempotencyRepository
}
