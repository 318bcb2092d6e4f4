package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wara/internal/model"
	"wara/internal/repository"
)

type MockComparisonRepository struct {
	mock.Mock
}

func (m *MockComparisonRepository) Create(ctx context.Context, cmp *model.Comparison) (*model.Comparison, error) {
	args := m.Called(ctx, cmp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comparison), args.Error(1)
}

func (m *MockComparisonRepository) FindByID(ctx context.Context, id string) (*model.Comparison, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comparison), args.Error(1)
}

func (m *MockComparisonRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Comparison], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Comparison]), args.Error(1)
}

func (m *MockComparisonRepository) SetStatus(ctx context.Context, id string, status model.ComparisonStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockComparisonRepository) Complete(ctx context.Context, cmp *model.Comparison) error {
	args := m.Called(ctx, cmp)
	return args.Error(0)
}

func (m *MockComparisonRepository) ReplaceChanges(ctx context.Context, comparisonID string, changes []model.Change) error {
	args := m.Called(ctx, comparisonID, changes)
	return args.Error(0)
}

func (m *MockComparisonRepository) ListChanges(ctx context.Context, comparisonID string, changeType model.ChangeType, pq repository.PageQuery) (*repository.PageResult[model.Change], error) {
	args := m.Called(ctx, comparisonID, changeType, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Change]), args.Error(1)
}

func (m *MockComparisonRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
