package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

func seededStore() *ProductStore {
	return NewProductStore("products_v2",
		domain.Row{"id": json.Number("1"), "name": "Blue Mug", "sku": "MUG-B", "created_at": "2024-01-01"},
		domain.Row{"id": json.Number("2"), "name": "T-Shirt", "description": "cotton", "sku": "TS-1", "created_at": "2024-03-01"},
		domain.Row{"id": json.Number("3"), "name": "Red mug", "sku": "MUG-R", "created_at": "2024-02-01"},
	)
}

func TestProductStore_QueryProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("sorts descending with offset and limit", func(t *testing.T) {
		s := seededStore()
		rows, total, err := s.QueryProducts(ctx, repository.ProductQuery{
			SortField: "created_at", SortDir: domain.SortDescending, Offset: 0, Limit: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, rows, 2)
		assert.Equal(t, "T-Shirt", rows[0]["name"])
		assert.Equal(t, "Red mug", rows[1]["name"])
	})

	t.Run("search is a case-insensitive OR over name, description and sku", func(t *testing.T) {
		s := seededStore()
		rows, total, err := s.QueryProducts(ctx, repository.ProductQuery{Search: "mug", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, rows, 2)

		rows, total, err = s.QueryProducts(ctx, repository.ProductQuery{Search: "COTTON", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "T-Shirt", rows[0]["name"])
	})

	t.Run("offset past the end yields an empty page", func(t *testing.T) {
		s := seededStore()
		rows, total, err := s.QueryProducts(ctx, repository.ProductQuery{Offset: 30, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Empty(t, rows)
	})

	t.Run("injected error", func(t *testing.T) {
		s := seededStore()
		s.SetError(assert.AnError)
		_, _, err := s.QueryProducts(ctx, repository.ProductQuery{Limit: 10})
		assert.ErrorIs(t, err, assert.AnError)
		assert.EqualValues(t, 1, s.Calls())
	})
}

func TestProductStore_GetProduct(t *testing.T) {
	s := seededStore()
	row, err := s.GetProduct(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "T-Shirt", row["name"])

	_, err = s.GetProduct(context.Background(), "404")
	assert.True(t, errors.IsNotFound(err))
}

func TestParseSeed(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		s, err := ParseSeed([]byte(`[{"id":7,"title":"Mug","price":"9.99"}]`), "")
		require.NoError(t, err)
		row, err := s.GetProduct(context.Background(), "7")
		require.NoError(t, err)
		assert.Equal(t, json.Number("7"), row["id"])
		assert.Equal(t, "products", s.Table())
	})

	t.Run("object with variants", func(t *testing.T) {
		s, err := ParseSeed([]byte(`{"products":[{"id":"a"}],"variants":[{"id":"v1","product_id":"a"},{"id":"v2","product_id":"b"}]}`), "t")
		require.NoError(t, err)
		vs, err := s.ListVariants(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, vs, 1)
		assert.Equal(t, "v1", vs[0]["id"])
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseSeed([]byte(`{nope`), "")
		assert.Error(t, err)
		_, err = ParseSeed([]byte(`"str"`), "")
		assert.Error(t, err)
	})
}

func TestCustomizableSet(t *testing.T) {
	ctx := context.Background()
	s := NewCustomizableSet()

	require.NoError(t, s.Mark(ctx, "p1"))
	require.NoError(t, s.Mark(ctx, "p1"))
	require.NoError(t, s.Mark(ctx, "p0"))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1"}, ids)

	require.NoError(t, s.Unmark(ctx, "p1"))
	require.NoError(t, s.Unmark(ctx, "never-marked"))
	ok, err := s.Contains(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()

	require.NoError(t, r.Add(ctx, &domain.CartItem{CartID: "c1", CustomizationID: "z2", ProductID: "p"}))
	require.NoError(t, r.Add(ctx, &domain.CartItem{CartID: "c1", CustomizationID: "a1", ProductID: "q"}))
	require.NoError(t, r.Add(ctx, &domain.CartItem{CartID: "c2", CustomizationID: "x", ProductID: "r"}))

	items, err := r.ListByCart(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "z2", items[0].CustomizationID)
	assert.Equal(t, "a1", items[1].CustomizationID)

	err = r.Update(ctx, &domain.CartItem{CartID: "c1", CustomizationID: "missing"})
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, r.Update(ctx, &domain.CartItem{CartID: "c1", CustomizationID: "a1", Quantity: 4}))
	item, err := r.GetByCustomizationID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)
	assert.False(t, item.CreatedAt.IsZero())

	require.NoError(t, r.ClearCart(ctx, "c1"))
	items, err = r.ListByCart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, items)
	items, err = r.ListByCart(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	r := NewIdempotencyRepository()

	rec, err := r.GetByKey(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, r.Create(ctx, &repository.IdempotencyRecord{Key: "k", RequestHash: "h1", Result: domain.OrderResult{OrderID: "o1"}}))
	require.NoError(t, r.Create(ctx, &repository.IdempotencyRecord{Key: "k", RequestHash: "h2", Result: domain.OrderResult{OrderID: "o2"}}))

	rec, err = r.GetByKey(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "h1", rec.RequestHash)
	assert.Equal(t, "o1", rec.Result.OrderID)
}
