package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wara/internal/model"
	"wara/internal/queue"
)

// MockJobEnqueuer stands in for the queue publisher.
type MockJobEnqueuer struct {
	mock.Mock
}

func (m *MockJobEnqueuer) Publish(ctx context.Context, job queue.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockAnalyzer stands in for the LLM comparison client.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) CompareDocuments(ctx context.Context, base, compared *model.Document) (*model.LLMAnalysis, error) {
	args := m.Called(ctx, base, compared)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LLMAnalysis), args.Error(1)
}

// MockInsightExtractor stands in for the LLM key point and sentiment client.
type MockInsightExtractor struct {
	mock.Mock
}

func (m *MockInsightExtractor) KeyPoints(ctx context.Context, doc *model.Document) ([]model.KeyPoint, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.KeyPoint), args.Error(1)
}

func (m *MockInsightExtractor) Sentiment(ctx context.Context, doc *model.Document) (*model.SentimentAnalysis, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SentimentAnalysis), args.Error(1)
}

// MockAnalysisCache stands in for the Redis analysis cache.
type MockAnalysisCache struct {
	mock.Mock
}

func (m *MockAnalysisCache) Get(ctx context.Context, baseChecksum, comparedChecksum string) (*model.LLMAnalysis, bool, error) {
	args := m.Called(ctx, baseChecksum, comparedChecksum)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.LLMAnalysis), args.Bool(1), args.Error(2)
}

func (m *MockAnalysisCache) Set(ctx context.Context, baseChecksum, comparedChecksum string, analysis *model.LLMAnalysis) error {
	args := m.Called(ctx, baseChecksum, comparedChecksum, analysis)
	return args.Error(0)
}
