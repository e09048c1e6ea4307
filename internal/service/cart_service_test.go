package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository/memory"
	"github.com/joshnavoa/zakeke/internal/zakeke"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

type fakeUpstream struct {
	mu      sync.Mutex
	added   []domain.CartItem
	updated []domain.CartItem
	orders  []domain.OrderRequest
	err     error
}

func (f *fakeUpstream) AddCartItem(ctx context.Context, item *domain.CartItem) (*zakeke.CartItemResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, *item)
	return &zakeke.CartItemResult{ID: item.CustomizationID}, nil
}

func (f *fakeUpstream) UpdateCartItem(ctx context.Context, id string, item *domain.CartItem) (*zakeke.CartItemResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, *item)
	return &zakeke.CartItemResult{ID: id}, nil
}

func (f *fakeUpstream) CreateOrder(ctx context.Context, order *domain.OrderRequest) (domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.OrderResult{}, f.err
	}
	f.orders = append(f.orders, *order)
	return domain.OrderResult{OrderID: fmt.Sprintf("o%d", len(f.orders)), OrderNumber: "Z-1"}, nil
}

func (f *fakeUpstream) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"` + orderID + `","status":"pending"}`), nil
}

func newTestService(t *testing.T) (*CartService, *fakeUpstream) {
	t.Helper()
	store := memory.NewProductStore("products", domain.Row{"id": "p1", "name": "Mug", "price": "12.5"})
	repos := memory.NewRepositories(store)
	src := catalog.NewSource(store, catalog.SourceOptions{}, nil)
	up := &fakeUpstream{}
	return NewCartService(repos, src, up, "EUR", nil), up
}

func floatPtr(f float64) *float64 { return &f }

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and catalog price fallback", func(t *testing.T) {
		svc, up := newTestService(t)
		item, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, 12.5, item.Price)
		assert.NotEmpty(t, item.CustomizationID)
		require.Len(t, up.added, 1)

		items, err := svc.ListItems(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("explicit price wins", func(t *testing.T) {
		svc, _ := newTestService(t)
		item, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "p1", Price: floatPtr(3), Quantity: 2, CustomizationID: "z1"})
		require.NoError(t, err)
		assert.Equal(t, 3.0, item.Price)
		assert.Equal(t, 2, item.Quantity)
		assert.Equal(t, "z1", item.CustomizationID)
	})

	t.Run("unknown product price is 0", func(t *testing.T) {
		svc, _ := newTestService(t)
		item, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "nope"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, item.Price)
	})

	t.Run("not stored when upstream rejects", func(t *testing.T) {
		svc, up := newTestService(t)
		up.err = &errors.ErrUpstream{Status: 500, Body: "down"}
		_, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "p1"})
		require.Error(t, err)
		items, err := svc.ListItems(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1"})
		assert.True(t, errors.IsValidation(err))
		_, err = svc.AddItem(ctx, AddItemRequest{ProductID: "p1"})
		assert.True(t, errors.IsValidation(err))
	})
}

func TestEditItem(t *testing.T) {
	ctx := context.Background()
	svc, up := newTestService(t)

	_, err := svc.EditItem(ctx, "missing", EditItemRequest{})
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "p1", CustomizationID: "z1"})
	require.NoError(t, err)

	qty := 5
	item, err := svc.EditItem(ctx, "z1", EditItemRequest{Quantity: &qty, CustomizationData: json.RawMessage(`{"d":2}`)})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 12.5, item.Price)
	require.Len(t, up.updated, 1)

	zero := 0
	_, err = svc.EditItem(ctx, "z1", EditItemRequest{Quantity: &zero})
	assert.True(t, errors.IsValidation(err))
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		svc, up := newTestService(t)
		_, err := svc.Checkout(ctx, CheckoutRequest{CartID: "c1"})
		require.True(t, errors.IsValidation(err))
		assert.Equal(t, "Cart is empty", err.Error())
		assert.Empty(t, up.orders)
	})

	t.Run("uses stored cart and clears it", func(t *testing.T) {
		svc, up := newTestService(t)
		_, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "p1", Quantity: 2})
		require.NoError(t, err)

		res, err := svc.Checkout(ctx, CheckoutRequest{
			CartID:          "c1",
			CustomerEmail:   "a@b.c",
			ShippingAddress: domain.Address{City: "Austin"},
		})
		require.NoError(t, err)
		assert.Equal(t, "o1", res.OrderID)

		require.Len(t, up.orders, 1)
		order := up.orders[0]
		assert.Equal(t, "EUR", order.Currency)
		assert.Equal(t, "Austin", order.BillingAddress.City)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 2, order.Items[0].Quantity)

		items, err := svc.ListItems(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("cart kept when order fails", func(t *testing.T) {
		svc, up := newTestService(t)
		_, err := svc.AddItem(ctx, AddItemRequest{CartID: "c1", ProductID: "p1"})
		require.NoError(t, err)
		up.err = &errors.ErrUpstream{Status: 502}

		_, err = svc.Checkout(ctx, CheckoutRequest{CartID: "c1"})
		require.Error(t, err)
		items, err := svc.ListItems(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestOrderStatus(t *testing.T) {
	svc, _ := newTestService(t)
	raw, err := svc.OrderStatus(context.Background(), "o9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"o9","status":"pending"}`, string(raw))

	_, err = svc.OrderStatus(context.Background(), " ")
	assert.True(t, errors.IsValidation(err))
}
