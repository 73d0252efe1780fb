package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("validation failed",
		ValidationDetail{Field: "quantity", Message: "quantity must be at least 1"},
	)

	assert.Equal(t, "validation failed", err.Error())
	assert.Len(t, err.Details, 1)
	assert.Equal(t, "quantity", err.Details[0].Field)

	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, err, ve)

	_, ok = IsValidationError(errors.New("other"))
	assert.False(t, ok)
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("order with id 42 not found")

	assert.Equal(t, "order with id 42 not found", err.Error())

	nf, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, err, nf)

	_, ok = IsNotFoundError(NewConflictError("x"))
	assert.False(t, ok)
}

func TestConflictError_WithID(t *testing.T) {
	err := NewConflictErrorWithID("table already has an active order", "17")

	assert.Equal(t, "table already has an active order", err.Error())
	assert.Equal(t, "17", err.ConflictingID)

	ce, ok := IsConflictError(err)
	assert.True(t, ok)
	assert.Equal(t, "17", ce.ConflictingID)
}

func TestInvalidStateError(t *testing.T) {
	err := NewInvalidStateError("order is already completed")

	ise, ok := IsInvalidStateError(err)
	assert.True(t, ok)
	assert.Equal(t, "order is already completed", ise.Message)

	_, ok = IsInvalidStateError(errors.New("other"))
	assert.False(t, ok)
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("querying orders", cause)

	assert.Equal(t, "querying orders: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("outer: %w", err)
	var ie *InternalError
	assert.True(t, errors.As(wrapped, &ie))
}

func TestInternalError_NoCause(t *testing.T) {
	err := NewInternalError("something broke", nil)
	assert.Equal(t, "something broke", err.Error())
	assert.Nil(t, err.Unwrap())
}
