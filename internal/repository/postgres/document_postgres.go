package postgres

import (
	"context"
	"database/sql"

	"supplierportal/internal/model"
	"supplierportal/internal/repository"
)

const documentColumns = `id, application_id, original_name, document_type, storage_path, size, content_type, uploaded_by, uploaded_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.OriginalName,
		&d.DocumentType,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&d.UploadedBy,
		&d.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, application_id, original_name, document_type, storage_path, size, content_type, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ApplicationID,
		doc.OriginalName,
		doc.DocumentType,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		doc.UploadedBy,
		doc.UploadedAt,
	))
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// ListByApplication returns one page of an application's documents and the
// total count.
func (r *DocumentPostgres) ListByApplication(ctx context.Context, applicationID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	total, err := r.CountByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE application_id = $1
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, q, applicationID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// CountByApplication counts an application's documents.
func (r *DocumentPostgres) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE application_id = $1`, applicationID).Scan(&total)
	return total, err
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
