package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

type cartRepository struct {
	mu    sync.Mutex
	items map[string]*domain.CartItem // by customization id
	seq   map[string]int64
	next  int64
}

// NewCartRepository creates an empty cart repository
func NewCartRepository() repository.CartRepository {
	return &cartRepository{
		items: make(map[string]*domain.CartItem),
		seq:   make(map[string]int64),
	}
}

func (r *cartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	cp := *item
	if _, exists := r.seq[item.CustomizationID]; !exists {
		r.next++
		r.seq[item.CustomizationID] = r.next
	}
	r.items[item.CustomizationID] = &cp
	return nil
}

func (r *cartRepository) GetByCustomizationID(ctx context.Context, customizationID string) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[customizationID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "cart item", ID: customizationID}
	}
	cp := *item
	return &cp, nil
}

func (r *cartRepository) Update(ctx context.Context, item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.CustomizationID]
	if !ok {
		return &errors.ErrNotFound{Resource: "cart item", ID: item.CustomizationID}
	}
	cp := *item
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	r.items[item.CustomizationID] = &cp
	return nil
}

// ListByCart returns the items of a cart in insertion order
func (r *cartRepository) ListByCart(ctx context.Context, cartID string) ([]*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.CartItem{}
	for _, item := range r.items {
		if item.CartID == cartID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].CustomizationID] < r.seq[out[j].CustomizationID]
	})
	return out, nil
}

func (r *cartRepository) ClearCart(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
			delete(r.seq, id)
		}
	}
	return nil
}
