// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/outbound"
)

// MockTextGenerator provides a mock implementation of outbound.TextGenerator
type MockTextGenerator struct {
	mock.Mock
	ProviderName string
	Credential   bool
	NeedsKey     bool
}

// NewMockTextGenerator creates a hosted-provider mock with a credential configured
func NewMockTextGenerator() *MockTextGenerator {
	return &MockTextGenerator{ProviderName: "mock", Credential: true, NeedsKey: true}
}

// Name implements outbound.TextGenerator
func (m *MockTextGenerator) Name() string { return m.ProviderName }

// RequiresCredential implements outbound.TextGenerator
func (m *MockTextGenerator) RequiresCredential() bool { return m.NeedsKey }

// HasCredential implements outbound.TextGenerator
func (m *MockTextGenerator) HasCredential() bool { return m.Credential }

// Generate implements outbound.TextGenerator
func (m *MockTextGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*outbound.GenerationResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

// Reply is a shorthand for a successful provider response
func Reply(text string) *outbound.GenerationResponse {
	return &outbound.GenerationResponse{Text: text, Model: "mock-model"}
}

// MockAIGateway provides a mock implementation of outbound.AIGateway
type MockAIGateway struct {
	mock.Mock
}

// GenerateRecipe implements outbound.AIGateway
func (m *MockAIGateway) GenerateRecipe(ctx context.Context, dishName string, cuisineHint planner.Cuisine) (*planner.Dish, error) {
	args := m.Called(ctx, dishName, cuisineHint)
	if d, ok := args.Get(0).(*planner.Dish); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// SuggestRandomDish implements outbound.AIGateway
func (m *MockAIGateway) SuggestRandomDish(ctx context.Context, cuisine planner.Cuisine) (string, error) {
	args := m.Called(ctx, cuisine)
	return args.String(0), args.Error(1)
}

// GetRealTimePrices implements outbound.AIGateway
func (m *MockAIGateway) GetRealTimePrices(ctx context.Context, names []string) (planner.PriceCache, error) {
	args := m.Called(ctx, names)
	if p, ok := args.Get(0).(planner.PriceCache); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// ChatWithAI implements outbound.AIGateway
func (m *MockAIGateway) ChatWithAI(ctx context.Context, message, plannerContext string) (string, error) {
	args := m.Called(ctx, message, plannerContext)
	return args.String(0), args.Error(1)
}

// FakeStateRepository is an in-memory outbound.StateRepository with
// injectable failures and a save counter
type FakeStateRepository struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saves   int
	LoadErr error
	SaveErr error
}

// NewFakeStateRepository creates an empty fake repository
func NewFakeStateRepository() *FakeStateRepository {
	return &FakeStateRepository{blobs: make(map[string][]byte)}
}

// Seed stores a raw blob without counting a save
func (f *FakeStateRepository) Seed(key string, blob []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = append([]byte(nil), blob...)
}

// Load implements outbound.StateRepository
func (f *FakeStateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	blob, ok := f.blobs[key]
	if !ok {
		return nil, outbound.ErrStateNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Save implements outbound.StateRepository
func (f *FakeStateRepository) Save(ctx context.Context, key string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.saves++
	f.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Saves returns how many successful saves happened
func (f *FakeStateRepository) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// Stored decodes the blob under key
func (f *FakeStateRepository) Stored(key string) (planner.AppState, bool) {
	f.mu.Lock()
	blob, ok := f.blobs[key]
	f.mu.Unlock()
	if !ok {
		return planner.AppState{}, false
	}
	s, err := planner.DecodeState(blob)
	return s, err == nil
}
