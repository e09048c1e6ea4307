package catalog

import (
	"context"
	"math"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 20
	MaxLimit         = 100
	DefaultSortField = "created_at"
)

var sortFieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ListParams are the paging and sort inputs of ListProducts. Zero values
// take the defaults.
type ListParams struct {
	Page          int
	Limit         int
	SortField     string
	SortDirection domain.SortDirection
}

// Outcome carries a value together with whether it is a degraded fallback.
// When Fallback is true, Value is the empty result and Cause the store error.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Cause    error
}

// Source is the catalog data source used by every HTTP handler
type Source struct {
	store        repository.ProductStore
	normalizer   *Normalizer
	customizable repository.CustomizableSet
	mode         domain.CustomizableMode
	logger       *zap.Logger
}

// SourceOptions configures NewSource
type SourceOptions struct {
	DefaultCurrency  string
	CustomizableMode domain.CustomizableMode
	Customizable     repository.CustomizableSet
}

// NewSource creates a catalog source; a nil store means no backing store is
// configured and every read yields the empty/not-found result
func NewSource(store repository.ProductStore, opts SourceOptions, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := opts.CustomizableMode
	if !mode.IsValid() {
		mode = domain.CustomizableAll
	}
	return &Source{
		store:        store,
		normalizer:   NewNormalizer(opts.DefaultCurrency),
		customizable: opts.Customizable,
		mode:         mode,
		logger:       logger,
	}
}

// Configured reports whether a backing store is attached
func (s *Source) Configured() bool {
	return s.store != nil
}

// ListProducts returns one page of products sorted by the requested column
func (s *Source) ListProducts(ctx context.Context, p ListParams) Outcome[domain.PaginatedResult] {
	page, limit := clampPaging(p.Page, p.Limit)
	field := p.SortField
	if !sortFieldPattern.MatchString(field) {
		field = DefaultSortField
	}
	dir := p.SortDirection
	if dir != domain.SortAscending {
		dir = domain.SortDescending
	}

	q := repository.ProductQuery{
		SortField: field,
		SortDir:   dir,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}
	out := s.query(ctx, "list products", q, page)
	if out.Fallback && field != DefaultSortField {
		// The store rejects columns it does not have
		s.logger.Warn("Sorted query failed, retrying with default sort",
			zap.String("sort", field),
			zap.Error(out.Cause),
		)
		q.SortField = DefaultSortField
		out = s.query(ctx, "list products", q, page)
	}
	return out
}

// SearchProducts matches query as a case-insensitive substring of name,
// description or sku. A blank query lists everything.
func (s *Source) SearchProducts(ctx context.Context, query string, page, limit int) Outcome[domain.PaginatedResult] {
	page, limit = clampPaging(page, limit)
	return s.query(ctx, "search products", repository.ProductQuery{
		Search:    strings.TrimSpace(query),
		SortField: DefaultSortField,
		SortDir:   domain.SortDescending,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}, page)
}

func (s *Source) query(ctx context.Context, op string, q repository.ProductQuery, page int) Outcome[domain.PaginatedResult] {
	empty := domain.EmptyPage(page, q.Limit)
	if s.store == nil {
		s.logger.Warn("Catalog store not configured, returning empty page", zap.String("op", op))
		return Outcome[domain.PaginatedResult]{Value: empty}
	}

	rows, total, err := s.store.QueryProducts(ctx, q)
	if err != nil {
		s.logger.Error("Catalog query failed, returning empty page",
			zap.String("op", op),
			zap.String("search", q.Search),
			zap.Int("offset", q.Offset),
			zap.Int("limit", q.Limit),
			zap.Error(err),
		)
		return Outcome[domain.PaginatedResult]{Value: empty, Fallback: true, Cause: storeErr(op, err)}
	}

	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	if len(rows) > 0 && total < q.Offset+len(rows) {
		total = len(rows) + q.Offset
	}

	items := make([]domain.CanonicalProduct, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.normalize(ctx, row))
	}
	return Outcome[domain.PaginatedResult]{Value: domain.PaginatedResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      q.Limit,
		TotalPages: domain.TotalPages(total, q.Limit),
	}}
}

// GetProduct returns one product. Absent rows and an unconfigured store give
// *errors.ErrNotFound; store failures give *errors.ErrStoreUnavailable.
func (s *Source) GetProduct(ctx context.Context, id string) (domain.CanonicalProduct, error) {
	if s.store == nil {
		return domain.CanonicalProduct{}, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	row, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.CanonicalProduct{}, err
		}
		s.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return domain.CanonicalProduct{}, storeErr("get product", err)
	}
	if row == nil {
		return domain.CanonicalProduct{}, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	return s.normalize(ctx, row), nil
}

// GetVariants returns the variants of a product in store order, empty on
// any failure
func (s *Source) GetVariants(ctx context.Context, productID string) []domain.ProductVariant {
	out := []domain.ProductVariant{}
	if s.store == nil {
		return out
	}
	rows, err := s.store.ListVariants(ctx, productID)
	if err != nil {
		s.logger.Warn("Failed to list variants, returning none", zap.String("product_id", productID), zap.Error(err))
		return out
	}
	for _, row := range rows {
		out = append(out, s.normalizer.NormalizeVariant(row))
	}
	return out
}

// InspectSchema reads one sample row and reports its columns and the
// suggested alias mappings
func (s *Source) InspectSchema(ctx context.Context) (*SchemaReport, error) {
	if s.store == nil {
		return nil, &errors.ErrStoreUnavailable{Op: "inspect schema", Err: errNotConfigured}
	}
	row, err := s.store.SampleProduct(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, storeErr("inspect schema", err)
	}
	return &SchemaReport{
		Table:             s.store.Table(),
		TotalColumns:      len(row),
		Columns:           DescribeColumns(row),
		SampleProduct:     row,
		SuggestedMappings: SuggestMappings(row),
		Normalized:        s.normalizer.Normalize(row),
	}, nil
}

func (s *Source) normalize(ctx context.Context, row domain.Row) domain.CanonicalProduct {
	p := s.normalizer.Normalize(row)
	if s.mode != domain.CustomizableAllowlist || s.customizable == nil {
		return p
	}
	ok, err := s.customizable.Contains(ctx, p.ID)
	if err != nil {
		s.logger.Warn("Customizable lookup failed, treating product as customizable", zap.String("product_id", p.ID), zap.Error(err))
		return p
	}
	p.Customizable = ok
	return p
}

func clampPaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// Keep (page-1)*limit from overflowing
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

type notConfiguredError struct{}

func (notConfiguredError) Error() string { return "no backing store configured" }

var errNotConfigured error = notConfiguredError{}

func storeErr(op string, err error) error {
	if errors.IsStoreUnavailable(err) {
		return err
	}
	return &errors.ErrStoreUnavailable{Op: op, Err: err}
}
