package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

// ProductStore is an in-memory repository.ProductStore. It backs the
// memory driver (seed file) and the tests.
type ProductStore struct {
	mu       sync.RWMutex
	table    string
	products []domain.Row
	variants []domain.Row
	err      error
	calls    atomic.Int64
}

// NewProductStore creates a store holding the given product rows
func NewProductStore(table string, products ...domain.Row) *ProductStore {
	if table == "" {
		table = "products"
	}
	return &ProductStore{table: table, products: products}
}

// LoadSeedFile reads a JSON seed: either an array of product rows or an
// object {"products": [...], "variants": [...]}
func LoadSeedFile(path, table string) (*ProductStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data, table)
}

// ParseSeed parses seed file contents, see LoadSeedFile
func ParseSeed(data []byte, table string) (*ProductStore, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("seed is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	store := NewProductStore(table)
	var err error
	switch {
	case root.IsArray():
		store.products, err = decodeRows(root.Raw)
	case root.IsObject():
		if store.products, err = decodeRows(root.Get("products").Raw); err == nil {
			store.variants, err = decodeRows(root.Get("variants").Raw)
		}
	default:
		err = fmt.Errorf("seed must be an array or an object")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return store, nil
}

func decodeRows(raw string) ([]domain.Row, error) {
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var rows []domain.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddVariants appends variant rows; they are matched to products by their
// product_id column
func (s *ProductStore) AddVariants(rows ...domain.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = append(s.variants, rows...)
}

// SetError makes every subsequent call fail with err; nil restores service
func (s *ProductStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many store operations were attempted
func (s *ProductStore) Calls() int64 {
	return s.calls.Load()
}

func (s *ProductStore) Table() string {
	return s.table
}

func (s *ProductStore) QueryProducts(ctx context.Context, q repository.ProductQuery) ([]domain.Row, int, error) {
	s.calls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, 0, s.err
	}

	matched := make([]domain.Row, 0, len(s.products))
	needle := strings.ToLower(q.Search)
	for _, row := range s.products {
		if needle == "" || matchesSearch(row, needle) {
			matched = append(matched, row)
		}
	}

	if q.SortField != "" {
		desc := q.SortDir != domain.SortAscending
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i][q.SortField], matched[j][q.SortField], desc)
		})
	}

	total := len(matched)
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && q.Limit < end-start {
		end = start + q.Limit
	}
	page := make([]domain.Row, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (s *ProductStore) GetProduct(ctx context.Context, id string) (domain.Row, error) {
	s.calls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, row := range s.products {
		if rowID(row, "id") == id {
			return row, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "product", ID: id}
}

func (s *ProductStore) ListVariants(ctx context.Context, productID string) ([]domain.Row, error) {
	s.calls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Row
	for _, row := range s.variants {
		if rowID(row, "product_id") == productID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *ProductStore) SampleProduct(ctx context.Context) (domain.Row, error) {
	s.calls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.products) == 0 {
		return nil, &errors.ErrNotFound{Resource: "product", ID: "sample"}
	}
	return s.products[0], nil
}

func matchesSearch(row domain.Row, needle string) bool {
	for _, col := range repository.SearchColumns {
		val, ok := row[col]
		if !ok || val == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(val)), needle) {
			return true
		}
	}
	return false
}

// less orders rows like ORDER BY ... NULLS LAST
func less(a, b interface{}, desc bool) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		if desc {
			return af > bf
		}
		return af < bf
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	if desc {
		return as > bs
	}
	return as < bs
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func rowID(row domain.Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(bytes.TrimSpace(v))
	default:
		return fmt.Sprint(v)
	}
}
