package model

import "time"

// Document is a file attached to an application. DocumentType names the
// form slot it was uploaded for.
type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	OriginalName  string    `json:"original_name"`
	DocumentType  string    `json:"document_type"`
	StoragePath   string    `json:"storage_path"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	UploadedBy    string    `json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
