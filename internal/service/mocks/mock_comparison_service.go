package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wara/internal/model"
	"wara/internal/service"
)

type MockComparisonService struct {
	mock.Mock
}

func (m *MockComparisonService) Create(ctx context.Context, in service.CreateComparisonInput) (*model.Comparison, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comparison), args.Error(1)
}

func (m *MockComparisonService) Run(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockComparisonService) List(ctx context.Context, limit, offset int) (*service.ComparisonListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ComparisonListResult), args.Error(1)
}

func (m *MockComparisonService) Get(ctx context.Context, id string) (*model.Comparison, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comparison), args.Error(1)
}

func (m *MockComparisonService) Changes(ctx context.Context, id string, changeType model.ChangeType, limit, offset int) (*service.ChangeListResult, error) {
	args := m.Called(ctx, id, changeType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChangeListResult), args.Error(1)
}

func (m *MockComparisonService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
