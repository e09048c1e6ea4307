package catalog_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/internal/repository/memory"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

func rowsN(n int) []domain.Row {
	rows := make([]domain.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, domain.Row{
			"id":         float64(i),
			"name":       fmt.Sprintf("Product %d", i),
			"price":      float64(i),
			"created_at": fmt.Sprintf("2024-01-%02d", i),
		})
	}
	return rows
}

func newSource(store repository.ProductStore, opts catalog.SourceOptions) *catalog.Source {
	return catalog.NewSource(store, opts, nil)
}

func TestListProducts_PagingInvariants(t *testing.T) {
	store := memory.NewProductStore("products", rowsN(45)...)
	src := newSource(store, catalog.SourceOptions{})

	tests := []struct {
		page, limit          int
		wantItems, wantPages int
		wantPage, wantLimit  int
	}{
		{page: 1, limit: 20, wantItems: 20, wantPages: 3, wantPage: 1, wantLimit: 20},
		{page: 3, limit: 20, wantItems: 5, wantPages: 3, wantPage: 3, wantLimit: 20},
		{page: 4, limit: 20, wantItems: 0, wantPages: 3, wantPage: 4, wantLimit: 20},
		{page: 0, limit: 0, wantItems: 20, wantPages: 3, wantPage: 1, wantLimit: 20},
		{page: 1, limit: 500, wantItems: 45, wantPages: 1, wantPage: 1, wantLimit: 100},
		{page: 2, limit: 7, wantItems: 7, wantPages: 7, wantPage: 2, wantLimit: 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d limit=%d", tt.page, tt.limit), func(t *testing.T) {
			out := src.ListProducts(context.Background(), catalog.ListParams{Page: tt.page, Limit: tt.limit})
			require.False(t, out.Fallback)
			res := out.Value
			assert.Len(t, res.Items, tt.wantItems)
			assert.LessOrEqual(t, len(res.Items), res.Limit)
			assert.Equal(t, 45, res.Total)
			assert.Equal(t, tt.wantPages, res.TotalPages)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLimit, res.Limit)
		})
	}
}

func TestListProducts_Sort(t *testing.T) {
	store := memory.NewProductStore("products", rowsN(3)...)
	src := newSource(store, catalog.SourceOptions{})

	out := src.ListProducts(context.Background(), catalog.ListParams{})
	require.Len(t, out.Value.Items, 3)
	assert.Equal(t, "3", out.Value.Items[0].ID, "default is created_at DESC")

	out = src.ListProducts(context.Background(), catalog.ListParams{SortField: "price", SortDirection: domain.SortAscending})
	assert.Equal(t, "1", out.Value.Items[0].ID)

	out = src.ListProducts(context.Background(), catalog.ListParams{SortField: "price; DROP TABLE x", SortDirection: domain.SortAscending})
	assert.Equal(t, "1", out.Value.Items[0].ID, "invalid field falls back to created_at")
}

func TestListProducts_HugePage(t *testing.T) {
	store := memory.NewProductStore("products", rowsN(5)...)
	src := newSource(store, catalog.SourceOptions{})

	for _, page := range []int{92233720368547760, math.MaxInt} {
		var out catalog.Outcome[domain.PaginatedResult]
		require.NotPanics(t, func() {
			out = src.ListProducts(context.Background(), catalog.ListParams{Page: page, Limit: 100})
		})
		assert.False(t, out.Fallback)
		assert.Empty(t, out.Value.Items)
		assert.Equal(t, 5, out.Value.Total)
		assert.GreaterOrEqual(t, out.Value.Page, 1)

		search := src.SearchProducts(context.Background(), "product", page, 100)
		assert.False(t, search.Fallback)
		assert.Empty(t, search.Value.Items)
	}
}

// knownColumnsStore fails queries sorted by a column its rows do not have
type knownColumnsStore struct {
	*memory.ProductStore
	columns map[string]bool
}

func (s *knownColumnsStore) QueryProducts(ctx context.Context, q repository.ProductQuery) ([]domain.Row, int, error) {
	if q.SortField != "" && !s.columns[q.SortField] {
		return nil, 0, fmt.Errorf("column %q does not exist", q.SortField)
	}
	return s.ProductStore.QueryProducts(ctx, q)
}

func TestListProducts_UnknownSortColumnFallsBackToDefault(t *testing.T) {
	store := &knownColumnsStore{
		ProductStore: memory.NewProductStore("products", rowsN(3)...),
		columns:      map[string]bool{"id": true, "name": true, "price": true, "created_at": true},
	}
	src := newSource(store, catalog.SourceOptions{})

	out := src.ListProducts(context.Background(), catalog.ListParams{SortField: "foo", SortDirection: domain.SortAscending})
	require.False(t, out.Fallback)
	require.Len(t, out.Value.Items, 3)
	assert.Equal(t, "1", out.Value.Items[0].ID, "created_at keeps the requested direction")
	assert.Equal(t, 3, out.Value.Total)
}

func TestListProducts_StoreFailureFallsBack(t *testing.T) {
	store := memory.NewProductStore("products", rowsN(3)...)
	store.SetError(fmt.Errorf("connection refused"))
	src := newSource(store, catalog.SourceOptions{})

	out := src.ListProducts(context.Background(), catalog.ListParams{Page: 2, Limit: 10})
	assert.True(t, out.Fallback)
	assert.True(t, errors.IsStoreUnavailable(out.Cause))
	assert.NotNil(t, out.Value.Items)
	assert.Empty(t, out.Value.Items)
	assert.Equal(t, 0, out.Value.Total)
	assert.Equal(t, 2, out.Value.Page)

	search := src.SearchProducts(context.Background(), "x", 1, 10)
	assert.True(t, search.Fallback)
	assert.Empty(t, search.Value.Items)
	assert.Equal(t, 0, search.Value.Total)
}

func TestSource_Unconfigured(t *testing.T) {
	src := newSource(nil, catalog.SourceOptions{})
	assert.False(t, src.Configured())

	out := src.ListProducts(context.Background(), catalog.ListParams{})
	assert.False(t, out.Fallback)
	assert.Empty(t, out.Value.Items)

	_, err := src.GetProduct(context.Background(), "1")
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, src.GetVariants(context.Background(), "1"))

	_, err = src.InspectSchema(context.Background())
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestSearchProducts(t *testing.T) {
	store := memory.NewProductStore("products",
		domain.Row{"id": "a", "name": "Blue Mug", "created_at": "2024-01-01"},
		domain.Row{"id": "b", "name": "Poster", "sku": "mug-poster", "created_at": "2024-01-02"},
		domain.Row{"id": "c", "name": "Hat", "created_at": "2024-01-03"},
	)
	src := newSource(store, catalog.SourceOptions{})

	out := src.SearchProducts(context.Background(), "MUG", 1, 20)
	require.False(t, out.Fallback)
	assert.Equal(t, 2, out.Value.Total)
	assert.Equal(t, "b", out.Value.Items[0].ID)

	t.Run("blank query lists everything", func(t *testing.T) {
		out := src.SearchProducts(context.Background(), "   ", 1, 20)
		assert.Equal(t, 3, out.Value.Total)
	})
}

func TestGetProduct(t *testing.T) {
	store := memory.NewProductStore("products", domain.Row{"id": float64(7), "title": "Mug", "price": "9.99"})
	src := newSource(store, catalog.SourceOptions{})

	p, err := src.GetProduct(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 9.99, p.Price)

	_, err = src.GetProduct(context.Background(), "8")
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsStoreUnavailable(err))

	store.SetError(fmt.Errorf("timeout"))
	_, err = src.GetProduct(context.Background(), "7")
	assert.True(t, errors.IsStoreUnavailable(err))
	assert.False(t, errors.IsNotFound(err))
}

func TestGetVariants(t *testing.T) {
	store := memory.NewProductStore("products", domain.Row{"id": "p"})
	store.AddVariants(
		domain.Row{"id": "v1", "product_id": "p", "name": "Small"},
		domain.Row{"id": "v2", "product_id": "p"},
	)
	src := newSource(store, catalog.SourceOptions{})

	vs := src.GetVariants(context.Background(), "p")
	require.Len(t, vs, 2)
	assert.Equal(t, "Small", vs[0].Name)
	assert.Equal(t, "Default", vs[1].Name)

	store.SetError(fmt.Errorf("boom"))
	assert.Empty(t, src.GetVariants(context.Background(), "p"))
}

func TestCustomizableAllowlist(t *testing.T) {
	ctx := context.Background()
	set := memory.NewCustomizableSet()
	require.NoError(t, set.Mark(ctx, "2"))

	store := memory.NewProductStore("products", rowsN(2)...)
	src := newSource(store, catalog.SourceOptions{CustomizableMode: domain.CustomizableAllowlist, Customizable: set})

	out := src.ListProducts(ctx, catalog.ListParams{SortField: "price", SortDirection: domain.SortAscending})
	require.Len(t, out.Value.Items, 2)
	assert.False(t, out.Value.Items[0].Customizable)
	assert.True(t, out.Value.Items[1].Customizable)

	all := newSource(store, catalog.SourceOptions{Customizable: set})
	out = all.ListProducts(ctx, catalog.ListParams{})
	for _, p := range out.Value.Items {
		assert.True(t, p.Customizable)
	}
}

func TestInspectSchema(t *testing.T) {
	store := memory.NewProductStore("products_v2", domain.Row{"id": "a", "title": "T"})
	src := newSource(store, catalog.SourceOptions{})

	report, err := src.InspectSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "products_v2", report.Table)
	assert.Equal(t, 2, report.TotalColumns)
	assert.Equal(t, "title", report.SuggestedMappings["name"])
	assert.Equal(t, "T", report.Normalized.Name)

	empty := newSource(memory.NewProductStore(""), catalog.SourceOptions{})
	_, err = empty.InspectSchema(context.Background())
	assert.True(t, errors.IsNotFound(err))
}
