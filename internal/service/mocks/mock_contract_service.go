package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"supplierportal/internal/model"
	"supplierportal/internal/service"
)

type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) Create(ctx context.Context, actor model.Actor, in service.ContractInput) (*model.Contract, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractService) Get(ctx context.Context, actor model.Actor, id string) (*model.Contract, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractService) ListByApplication(ctx context.Context, actor model.Actor, applicationID string) ([]model.Contract, error) {
	args := m.Called(ctx, actor, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Contract), args.Error(1)
}

func (m *MockContractService) Transition(ctx context.Context, actor model.Actor, id string, action model.Action, in model.TransitionInput) (*model.Contract, error) {
	args := m.Called(ctx, actor, id, action, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}
