package memory

import (
	"context"
	"sort"
	"sync"
)

// CustomizableSet keeps the customizable allow-list for the life of the
// process. It starts empty.
type CustomizableSet struct {
	ids sync.Map
}

// NewCustomizableSet creates an empty set
func NewCustomizableSet() *CustomizableSet {
	return &CustomizableSet{}
}

func (s *CustomizableSet) Mark(ctx context.Context, productID string) error {
	s.ids.Store(productID, struct{}{})
	return nil
}

func (s *CustomizableSet) Unmark(ctx context.Context, productID string) error {
	s.ids.Delete(productID)
	return nil
}

func (s *CustomizableSet) Contains(ctx context.Context, productID string) (bool, error) {
	_, ok := s.ids.Load(productID)
	return ok, nil
}

// List returns the members sorted
func (s *CustomizableSet) List(ctx context.Context) ([]string, error) {
	out := []string{}
	s.ids.Range(func(key, _ interface{}) bool {
		out = append(out, key.(string))
		return true
	})
	sort.Strings(out)
	return out, nil
}
