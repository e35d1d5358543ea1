package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"supplierportal/internal/model"
	"supplierportal/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, actor model.Actor, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) ListByApplication(ctx context.Context, actor model.Actor, applicationID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, actor, applicationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, actor model.Actor, id string) (*service.DocumentDownload, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentDownload), args.Error(1)
}

func (m *MockDocumentService) Open(ctx context.Context, actor model.Actor, id string) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Document), args.Error(2)
}

func (m *MockDocumentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
