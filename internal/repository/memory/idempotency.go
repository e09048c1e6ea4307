package memory

import (
	"context"
	"sync"

	"github.com/joshnavoa/zakeke/internal/repository"
)

type idempotencyRepository struct {
	mu      sync.RWMutex
	records map[string]repository.IdempotencyRecord
}

// NewIdempotencyRepository creates a new idempotency key repository
func NewIdempotencyRepository() repository.IdempotencyRepository {
	return &idempotencyRepository{records: make(map[string]repository.IdempotencyRecord)}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string) (*repository.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Create stores the record; the first answer stored for a key wins
func (r *idempotencyRepository) Create(ctx context.Context, record *repository.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.Key]; !exists {
		r.records[record.Key] = *record
	}
	return nil
}
