package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// MockStore is a mock implementation of the Storer interface for testing
type MockStore struct {
	mock.Mock
}

// SaveCredential mocks the SaveCredential method
func (m *MockStore) SaveCredential(ctx context.Context, cred domain.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

// LoadCredential mocks the LoadCredential method
func (m *MockStore) LoadCredential(ctx context.Context) (*domain.Credential, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

// MarkMessageProcessed mocks the MarkMessageProcessed method
func (m *MockStore) MarkMessageProcessed(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// IsMessageProcessed mocks the IsMessageProcessed method
func (m *MockStore) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

// CreateExtractionLog mocks the CreateExtractionLog method
func (m *MockStore) CreateExtractionLog(ctx context.Context, arg CreateExtractionLogParams) (domain.ExtractionLog, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.ExtractionLog), args.Error(1)
}

// GetExtractionLogs mocks the GetExtractionLogs method
func (m *MockStore) GetExtractionLogs(ctx context.Context, limit int) ([]domain.ExtractionLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ExtractionLog), args.Error(1)
}
