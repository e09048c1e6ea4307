package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
)

const IdempotencyKeyHeader = "Idempotency-Key"

const (
	idempotencyKeyCtx      = "idempotency_key"
	idempotencyHashCtx     = "idempotency_request_hash"
	idempotencyExistingCtx = "idempotency_existing_order"
)

// IdempotencyMiddleware replays checkouts sent twice with the same
// Idempotency-Key and rejects a reused key with a different body
func IdempotencyMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" || repos == nil || repos.Idempotency == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body for idempotency", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		existing, err := repos.Idempotency.GetByKey(c.Request.Context(), idempotencyKey)
		if err != nil {
			logger.Error("Failed to check idempotency key", zap.Error(err))
			c.Next()
			return
		}

		if existing != nil {
			if existing.RequestHash != requestHash {
				c.JSON(http.StatusConflict, gin.H{
					"error": "idempotency key conflict: same key used with different payload",
				})
				c.Abort()
				return
			}
			c.Set(idempotencyExistingCtx, existing.Result)
		} else {
			c.Set(idempotencyKeyCtx, idempotencyKey)
			c.Set(idempotencyHashCtx, requestHash)
		}

		c.Next()
	}
}

// GetIdempotencyInfo returns either the stored order of a replayed request
// (isExisting) or the key and hash to record once the order exists
func GetIdempotencyInfo(c *gin.Context) (key, requestHash string, existing domain.OrderResult, isExisting bool) {
	if v, ok := c.Get(idempotencyExistingCtx); ok {
		if res, ok := v.(domain.OrderResult); ok {
			return "", "", res, true
		}
	}

	keyVal, _ := c.Get(idempotencyKeyCtx)
	hashVal, _ := c.Get(idempotencyHashCtx)
	key, _ = keyVal.(string)
	requestHash, _ = hashVal.(string)
	return key, requestHash, domain.OrderResult{}, false
}
