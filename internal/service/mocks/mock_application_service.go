package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"supplierportal/internal/model"
	"supplierportal/internal/service"
)

type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) app(args mock.Arguments) (*model.Application, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationService) CreateDraft(ctx context.Context, actor model.Actor, payload model.ApplicationPayload) (*model.Application, error) {
	return m.app(m.Called(ctx, actor, payload))
}

func (m *MockApplicationService) UpdateDraft(ctx context.Context, actor model.Actor, id string, payload model.ApplicationPayload) (*model.Application, error) {
	return m.app(m.Called(ctx, actor, id, payload))
}

func (m *MockApplicationService) Submit(ctx context.Context, actor model.Actor, id string, payload *model.ApplicationPayload) (*model.Application, error) {
	return m.app(m.Called(ctx, actor, id, payload))
}

func (m *MockApplicationService) Get(ctx context.Context, actor model.Actor, id string) (*model.Application, error) {
	return m.app(m.Called(ctx, actor, id))
}

func (m *MockApplicationService) ListMine(ctx context.Context, actor model.Actor, limit, offset int) (*service.ApplicationListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApplicationListResult), args.Error(1)
}

func (m *MockApplicationService) ListTasks(ctx context.Context, actor model.Actor, limit, offset int) (*service.ApplicationListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApplicationListResult), args.Error(1)
}

func (m *MockApplicationService) Transition(ctx context.Context, actor model.Actor, id string, action model.Action, in model.TransitionInput) (*model.Application, error) {
	return m.app(m.Called(ctx, actor, id, action, in))
}
