package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"supplierportal/internal/config"
)

func TestDocumentKey(t *testing.T) {
	tests := []struct {
		name, original, want string
	}{
		{"keeps extension", "Tax Clearance.PDF", "applications/app-1/taxClearance/doc-1.pdf"},
		{"no extension", "README", "applications/app-1/taxClearance/doc-1"},
		{"strips client paths", "C:\\Users\\jo\\..\\cert.png", "applications/app-1/taxClearance/doc-1.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentKey("app-1", "taxClearance", "doc-1", tt.original))
		})
	}
}

func TestNewMinIO_RequiresConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewMinIO(ctx, config.MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = NewMinIO(ctx, config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials are required")

	_, err = NewMinIO(ctx, config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket is required")
}
