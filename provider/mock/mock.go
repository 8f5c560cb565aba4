// Package mock provides a scripted AI provider for testing.
package mock

import (
	"context"
	"sync"

	"github.com/GoCodeAlone/deskmate/provider"
)

const defaultResponse = "[]"

// MockProvider implements provider.Provider for testing. It returns
// scripted responses in order and records every conversation it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	idx       int
	calls     [][]provider.Message

	// Err, when set, is returned by every Chat call.
	Err error
}

// New creates a MockProvider that cycles through the given responses.
func New(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Chat returns the next scripted response, cycling through the queue.
func (m *MockProvider) Chat(_ context.Context, messages []provider.Message) (*provider.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]provider.Message(nil), messages...))
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.responses) == 0 {
		return &provider.Response{Content: defaultResponse}, nil
	}
	resp := m.responses[m.idx%len(m.responses)]
	m.idx++
	return &provider.Response{Content: resp, StopReason: "end_turn"}, nil
}

// Calls returns the conversations received so far.
func (m *MockProvider) Calls() [][]provider.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]provider.Message(nil), m.calls...)
}
