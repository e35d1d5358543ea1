package repository

import (
	"context"

	"supplierportal/internal/model"
)

// DocumentRepository defines data access for document metadata.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByApplication returns one application's documents, newest first.
	ListByApplication(ctx context.Context, applicationID string, pq PageQuery) (*PageResult[model.Document], error)

	// CountByApplication counts one application's documents.
	CountByApplication(ctx context.Context, applicationID string) (int, error)

	// Delete removes a document by ID. Deleting a missing row is not an error.
	Delete(ctx context.Context, id string) error
}
