package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrEmbeddingUnavailable,
		ErrTransport,
		ErrSchema,
		ErrConsistency,
	}

	for i := range errs {
		for j := range errs {
			if i != j {
				assert.False(t, errors.Is(errs[i], errs[j]), "%v should not match %v", errs[i], errs[j])
			}
		}
	}
}

func TestTransportError(t *testing.T) {
	t.Run("status and body", func(t *testing.T) {
		err := &TransportError{Service: "ollama", Op: "embed", Status: 500, Body: "model not found"}
		assert.Equal(t, "ollama embed (status 500): model not found", err.Error())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("connection failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &TransportError{Service: "qdrant", Op: "scroll", Err: cause}
		assert.Equal(t, "qdrant scroll: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("doc 3: %w", &TransportError{Service: "paperless", Op: "get document", Status: 404})
		var te *TransportError
		assert.True(t, errors.As(err, &te))
		assert.Equal(t, 404, te.Status)
	})
}

func TestIndexWriteError(t *testing.T) {
	err := &IndexWriteError{Op: "upsert points", Status: 400, Body: `{"status":{"error":"bad vector"}}`}
	assert.Contains(t, err.Error(), "upsert points")
	assert.Contains(t, err.Error(), "bad vector")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSchemaError(t *testing.T) {
	err := &SchemaError{Collection: "documents", Reason: "create failed"}
	assert.Equal(t, `collection "documents": create failed`, err.Error())
	assert.ErrorIs(t, err, ErrSchema)
}
