package postgres

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/repository"
)

type idempotencyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdempotencyRepository creates a new idempotency key repository
func NewIdempotencyRepository(db *sql.DB, logger *zap.Logger) repository.IdempotencyRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &idempotencyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string) (*repository.IdempotencyRecord, error) {
	query := `
		SELECT key, request_hash, order_id, order_number
		FROM zakeke_idempotency_keys
		WHERE key = $1
	`

	var rec repository.IdempotencyRecord
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&rec.Key,
		&rec.RequestHash,
		&rec.Result.OrderID,
		&rec.Result.OrderNumber,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get idempotency key", zap.Error(err))
		return nil, err
	}

	return &rec, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *repository.IdempotencyRecord) error {
	query := `
		INSERT INTO zakeke_idempotency_keys (key, request_hash, order_id, order_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		record.Key,
		record.RequestHash,
		record.Result.OrderID,
		record.Result.OrderNumber,
	)
	if err != nil {
		r.logger.Error("Failed to create idempotency key", zap.Error(err))
		return err
	}

	return nil
}
