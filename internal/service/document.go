package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	"supplierportal/internal/repository"
	"supplierportal/internal/storage"
	"supplierportal/internal/workflow/form"
)

var ErrReaderNil = errors.New("reader is nil")

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentDownload is a document plus a time-limited link to its bytes.
type DocumentDownload struct {
	model.Document
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadInput describes one file sent to an application's slot.
type UploadInput struct {
	ApplicationID string
	Slot          string
	Filename      string
	ContentType   string
	Size          int64
	Reader        io.Reader
}

// DocumentService handles the bytes behind file slots.
type DocumentService interface {
	// Upload stores the content, saves metadata to DB, and rolls back storage if the DB save fails.
	Upload(ctx context.Context, actor model.Actor, in UploadInput) (*model.Document, error)

	// ListByApplication returns an application's documents using limit/offset and a total count.
	ListByApplication(ctx context.Context, actor model.Actor, applicationID string, limit, offset int) (*DocumentListResult, error)

	// Get returns a document's metadata with a presigned download URL.
	Get(ctx context.Context, actor model.Actor, id string) (*DocumentDownload, error)

	// Open streams a document's bytes. The caller closes the reader.
	Open(ctx context.Context, actor model.Actor, id string) (io.ReadCloser, *model.Document, error)

	// Delete removes a document from storage and the repository. Only the
	// owner of a draft may do this.
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	apps       repository.ApplicationRepository
	presignTTL time.Duration
	maxBytes   int64
	log        logrus.FieldLogger
	now        func() time.Time
}

// DocumentDeps groups what NewDocumentService needs.
type DocumentDeps struct {
	Storage      storage.Storage
	Documents    repository.DocumentRepository
	Applications repository.ApplicationRepository
	PresignTTL   time.Duration
	MaxBytes     int64
	Log          logrus.FieldLogger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d DocumentDeps) DocumentService {
	if d.PresignTTL <= 0 {
		d.PresignTTL = 15 * time.Minute
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &documentService{
		store:      d.Storage,
		repo:       d.Documents,
		apps:       d.Applications,
		presignTTL: d.PresignTTL,
		maxBytes:   d.MaxBytes,
		log:        d.Log.WithField("component", "document_service"),
		now:        time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, actor model.Actor, in UploadInput) (_ *model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Upload",
		attribute.String("application.id", in.ApplicationID),
		attribute.String("document.slot", in.Slot),
	)
	defer func() { endSpan(span, err) }()

	if in.Reader == nil {
		return nil, ErrReaderNil
	}
	if in.ApplicationID == "" {
		return nil, ErrIDRequired
	}
	if _, ok := form.SlotByName(in.Slot); !ok {
		return nil, &apperr.ValidationError{Message: fmt.Sprintf("unknown file slot %q", in.Slot), Fields: map[string]string{"slot": "oneof"}}
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, &apperr.ValidationError{Fields: map[string]string{"file": "required"}}
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, &apperr.ValidationError{
			Message: fmt.Sprintf("file exceeds %d bytes", s.maxBytes),
			Fields:  map[string]string{"file": "max"},
		}
	}
	if _, err := s.editableDraft(ctx, actor, in.ApplicationID); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := storage.DocumentKey(in.ApplicationID, in.Slot, id, name)

	objInfo, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": name,
			"application-id":    in.ApplicationID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:            id,
		ApplicationID: in.ApplicationID,
		OriginalName:  name,
		DocumentType:  in.Slot,
		StoragePath:   objInfo.Key,
		Size:          objInfo.Size,
		ContentType:   objInfo.ContentType,
		UploadedBy:    actor.ID,
		UploadedAt:    s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.log.WithFields(logrus.Fields{"event": "document_uploaded", "application_id": in.ApplicationID, "document_id": id, "slot": in.Slot}).Info("document uploaded")
	return stored, nil
}

func (s *documentService) ListByApplication(ctx context.Context, actor model.Actor, applicationID string, limit, offset int) (*DocumentListResult, error) {
	if applicationID == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.readable(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	res, err := s.repo.ListByApplication(ctx, applicationID, page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, actor model.Actor, id string) (*DocumentDownload, error) {
	doc, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	url, err := s.store.PresignGet(ctx, doc.StoragePath, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &DocumentDownload{Document: *doc, URL: url, ExpiresAt: s.now().UTC().Add(s.presignTTL)}, nil
}

func (s *documentService) Open(ctx context.Context, actor model.Actor, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return rc, doc, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.editableDraft(ctx, actor, doc.ApplicationID); err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the object stays reachable.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"event": "document_deleted", "application_id": doc.ApplicationID, "document_id": id}).Info("document deleted")
	return nil
}

func (s *documentService) find(ctx context.Context, actor model.Actor, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.readable(ctx, actor, doc.ApplicationID); err != nil {
		return nil, err
	}
	return doc, nil
}

// readable loads the application and checks the actor may see it.
func (s *documentService) readable(ctx context.Context, actor model.Actor, applicationID string) (*model.Application, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleApplicant {
		if err := requireOwner(app, actor); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// editableDraft loads the application and checks the actor owns it and it is
// still a draft.
func (s *documentService) editableDraft(ctx context.Context, actor model.Actor, applicationID string) (*model.Application, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(app, actor); err != nil {
		return nil, err
	}
	if app.Status != model.StatusDraft {
		return nil, apperr.Policy("application is %s; files can only change on a draft", app.Status)
	}
	return app, nil
}
