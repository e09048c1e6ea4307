package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

type productStore struct {
	db            *sql.DB
	productsTable string
	variantsTable string
	logger        *zap.Logger
}

// NewProductStore creates a ProductStore reading whole rows as JSON so the
// column set does not need to be known
func NewProductStore(db *sql.DB, productsTable, variantsTable string, logger *zap.Logger) repository.ProductStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productStore{
		db:            db,
		productsTable: productsTable,
		variantsTable: variantsTable,
		logger:        logger,
	}
}

func (s *productStore) Table() string {
	return s.productsTable
}

func (s *productStore) QueryProducts(ctx context.Context, q repository.ProductQuery) ([]domain.Row, int, error) {
	selectSQL, countSQL, args := buildProductQuery(s.productsTable, q)

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, args[:len(args)-2]...).Scan(&total); err != nil {
		s.logger.Error("Failed to count products", zap.String("table", s.productsTable), zap.Error(err))
		return nil, 0, err
	}

	rows, err := s.queryRows(ctx, selectSQL, args...)
	if err != nil {
		s.logger.Error("Failed to query products", zap.String("table", s.productsTable), zap.Error(err))
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *productStore) GetProduct(ctx context.Context, id string) (domain.Row, error) {
	query := fmt.Sprintf(`SELECT row_to_json(p)::text FROM %s p WHERE p.id::text = $1 LIMIT 1`, quoteTable(s.productsTable))

	rows, err := s.queryRows(ctx, query, id)
	if err != nil {
		s.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	return rows[0], nil
}

func (s *productStore) ListVariants(ctx context.Context, productID string) ([]domain.Row, error) {
	query := fmt.Sprintf(`SELECT row_to_json(v)::text FROM %s v WHERE v.product_id::text = $1`, quoteTable(s.variantsTable))
	return s.queryRows(ctx, query, productID)
}

func (s *productStore) SampleProduct(ctx context.Context) (domain.Row, error) {
	query := fmt.Sprintf(`SELECT row_to_json(p)::text FROM %s p LIMIT 1`, quoteTable(s.productsTable))
	rows, err := s.queryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &errors.ErrNotFound{Resource: "product", ID: "sample"}
	}
	return rows[0], nil
}

func (s *productStore) queryRows(ctx context.Context, query string, args ...interface{}) ([]domain.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		row, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildProductQuery returns the page query, the count query and their
// arguments. The count query takes all arguments but the trailing
// limit and offset.
func buildProductQuery(table string, q repository.ProductQuery) (string, string, []interface{}) {
	from := quoteTable(table) + " p"
	var where string
	var args []interface{}

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		conds := make([]string, 0, len(repository.SearchColumns))
		for _, col := range repository.SearchColumns {
			// ->> yields NULL for columns the table does not have
			conds = append(conds, fmt.Sprintf("(row_to_json(p)->>%s) ILIKE $1", pq.QuoteLiteral(col)))
		}
		where = " WHERE " + strings.Join(conds, " OR ")
	}

	dir := "DESC"
	if q.SortDir == domain.SortAscending {
		dir = "ASC"
	}
	order := ""
	if q.SortField != "" {
		order = fmt.Sprintf(" ORDER BY p.%s %s NULLS LAST", pq.QuoteIdentifier(q.SortField), dir)
	}

	n := len(args)
	args = append(args, q.Limit, q.Offset)
	selectSQL := fmt.Sprintf("SELECT row_to_json(p)::text FROM %s%s%s LIMIT $%d OFFSET $%d", from, where, order, n+1, n+2)
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", from, where)
	return selectSQL, countSQL, args
}

// quoteTable quotes each part of a possibly schema-qualified table name
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func decodeRow(raw string) (domain.Row, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var row domain.Row
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return row, nil
}
