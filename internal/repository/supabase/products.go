package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

type productStore struct {
	client        *supabase.Client
	productsTable string
	variantsTable string
	logger        *zap.Logger
}

// NewProductStore creates a ProductStore backed by the Supabase REST API
func NewProductStore(url, key, productsTable, variantsTable string, logger *zap.Logger) (repository.ProductStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &productStore{
		client:        client,
		productsTable: productsTable,
		variantsTable: variantsTable,
		logger:        logger,
	}, nil
}

func (s *productStore) Table() string {
	return s.productsTable
}

func (s *productStore) QueryProducts(ctx context.Context, q repository.ProductQuery) ([]domain.Row, int, error) {
	fb := s.client.From(s.productsTable).Select("*", "exact", false)
	if q.Search != "" {
		fb = fb.Or(searchFilter(q.Search), "")
	}
	if q.SortField != "" {
		fb = fb.Order(q.SortField, &postgrest.OrderOpts{Ascending: q.SortDir == domain.SortAscending})
	}
	fb = fb.Range(q.Offset, q.Offset+q.Limit-1, "")

	body, count, err := fb.Execute()
	if err != nil {
		s.logger.Error("supabase: products query failed", zap.String("table", s.productsTable), zap.Error(err))
		return nil, 0, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, 0, err
	}
	return rows, int(count), nil
}

func (s *productStore) GetProduct(ctx context.Context, id string) (domain.Row, error) {
	body, _, err := s.client.From(s.productsTable).Select("*", "", false).Eq("id", id).Limit(1, "").Execute()
	if err != nil {
		s.logger.Error("supabase: product lookup failed", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	return rows[0], nil
}

func (s *productStore) ListVariants(ctx context.Context, productID string) ([]domain.Row, error) {
	body, _, err := s.client.From(s.variantsTable).Select("*", "", false).Eq("product_id", productID).Execute()
	if err != nil {
		return nil, err
	}
	return decodeRows(body)
}

func (s *productStore) SampleProduct(ctx context.Context) (domain.Row, error) {
	body, _, err := s.client.From(s.productsTable).Select("*", "", false).Limit(1, "").Execute()
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &errors.ErrNotFound{Resource: "product", ID: "sample"}
	}
	return rows[0], nil
}

// searchFilter builds the PostgREST or= expression matching term in any
// search column. The pattern is double-quoted so commas and parentheses in
// the term stay literal.
func searchFilter(term string) string {
	quoted := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(term)
	conds := make([]string, 0, len(repository.SearchColumns))
	for _, col := range repository.SearchColumns {
		conds = append(conds, fmt.Sprintf(`%s.ilike."*%s*"`, col, quoted))
	}
	return strings.Join(conds, ",")
}

func decodeRows(body []byte) ([]domain.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rows []domain.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("unexpected supabase payload: %w", err)
	}
	return rows, nil
}
