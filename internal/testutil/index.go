package testutil

import (
	"context"

	"github.com/hupe1980/caremesh/core"
	"github.com/stretchr/testify/mock"
)

var _ core.Index = (*MockIndex)(nil)

// MockIndex is a testify mock of core.Index.
type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Add(ctx context.Context, namespace string, docs []core.ReportDocument) error {
	args := m.Called(ctx, namespace, docs)
	return args.Error(0)
}

func (m *MockIndex) Query(ctx context.Context, namespace string, text string, topK int) ([]core.Chunk, error) {
	args := m.Called(ctx, namespace, text, topK)
	chunks, _ := args.Get(0).([]core.Chunk)
	return chunks, args.Error(1)
}

func (m *MockIndex) Drop(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}
