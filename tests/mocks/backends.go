package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ideaforge/application/ports"
)

// MockGenerationClient mocks ports.GenerationClient
type MockGenerationClient struct {
	mock.Mock
}

func (m *MockGenerationClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGenerationClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockEmbedder mocks ports.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if vec := args.Get(0); vec != nil {
		return vec.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmbedder) Dimensions() int {
	args := m.Called()
	return args.Int(0)
}

// MockProviderCatalog mocks ports.ProviderCatalog
type MockProviderCatalog struct {
	mock.Mock
}

func (m *MockProviderCatalog) List() []ports.ProviderInfo {
	args := m.Called()
	if infos := args.Get(0); infos != nil {
		return infos.([]ports.ProviderInfo)
	}
	return nil
}

func (m *MockProviderCatalog) Active() (ports.ProviderInfo, error) {
	args := m.Called()
	return args.Get(0).(ports.ProviderInfo), args.Error(1)
}

func (m *MockProviderCatalog) Switch(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

// MockCache mocks ports.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (interface{}, bool) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
