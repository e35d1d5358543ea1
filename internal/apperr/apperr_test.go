package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"supplierName": "required", "contactEmail": "email"}}
	assert.Equal(t, "validation failed: invalid fields (contactEmail email, supplierName required)", err.Error())

	assert.Equal(t, "validation failed: no documents", Validation("no documents").Error())
}

func TestMatchers(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", Policy("role %s not permitted", "legal"))

	assert.True(t, IsPolicy(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))

	assert.True(t, IsConflict(Conflict("status changed")))
	assert.True(t, IsValidation(Validation("x")))

	cause := errors.New("connection refused")
	terr := &TransportError{Op: "update draft", Err: cause}
	assert.True(t, IsTransport(terr))
	assert.ErrorIs(t, terr, cause)
	assert.Equal(t, "transport: update draft: connection refused", terr.Error())
}

func TestConflictError_Message(t *testing.T) {
	err := &ConflictError{Message: "status changed", Expected: "pending_legal", Actual: "approved"}
	assert.Equal(t, `conflict: status changed (expected "pending_legal", found "approved")`, err.Error())
}
