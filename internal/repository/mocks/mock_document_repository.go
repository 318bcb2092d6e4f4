package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wara/internal/model"
	"wara/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) ListVersions(ctx context.Context, rootID string) ([]model.Document, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) SetStatus(ctx context.Context, id string, status model.DocumentStatus, processingError string) error {
	args := m.Called(ctx, id, status, processingError)
	return args.Error(0)
}

func (m *MockDocumentRepository) SaveExtracted(ctx context.Context, doc *model.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) SetKeyPoints(ctx context.Context, id string, points []model.KeyPoint) error {
	args := m.Called(ctx, id, points)
	return args.Error(0)
}

func (m *MockDocumentRepository) ClearLatest(ctx context.Context, rootID string) error {
	args := m.Called(ctx, rootID)
	return args.Error(0)
}

func (m *MockDocumentRepository) ReplaceSections(ctx context.Context, documentID string, sections []model.Section) error {
	args := m.Called(ctx, documentID, sections)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListSections(ctx context.Context, documentID string) ([]model.Section, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Section), args.Error(1)
}

func (m *MockDocumentRepository) ReplaceTables(ctx context.Context, documentID string, tables []model.Table) error {
	args := m.Called(ctx, documentID, tables)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListTables(ctx context.Context, documentID string) ([]model.Table, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Table), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
