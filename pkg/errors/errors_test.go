package errors

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "product not found: 7", (&ErrNotFound{Resource: "product", ID: "7"}).Error())
	assert.Equal(t, "unauthorized", (&ErrUnauthorized{}).Error())
	assert.Equal(t, "bad creds", (&ErrUnauthorized{Message: "bad creds"}).Error())
	assert.Equal(t, "validation failed", (&ErrValidation{}).Error())
	assert.Equal(t, "Cart is empty", (&ErrValidation{Message: "Cart is empty"}).Error())
	assert.Equal(t, "zakeke returned 502: bad gateway", (&ErrUpstream{Status: 502, Body: "bad gateway"}).Error())
	assert.Equal(t, "ZAKEKE_TENANT_ID is required", (&ErrConfig{Key: "ZAKEKE_TENANT_ID", Message: "is required"}).Error())
}

func TestStoreUnavailableUnwrap(t *testing.T) {
	err := &ErrStoreUnavailable{Op: "get product", Err: sql.ErrConnDone}

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "get product")
	assert.Equal(t, "store unavailable: list", (&ErrStoreUnavailable{Op: "list"}).Error())
}

func TestClassifiers(t *testing.T) {
	notFound := fmt.Errorf("lookup: %w", &ErrNotFound{Resource: "product", ID: "1"})
	storeErr := fmt.Errorf("lookup: %w", &ErrStoreUnavailable{Op: "get"})
	validation := &ErrValidation{Message: "nope"}

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(storeErr))
	assert.True(t, IsStoreUnavailable(storeErr))
	assert.False(t, IsStoreUnavailable(notFound))
	assert.True(t, IsValidation(validation))
	assert.False(t, IsValidation(nil))
}
