package inference

import (
	"context"
	"sync"
)

// MockService is a scriptable fake for tests.
type MockService struct {
	mu       sync.Mutex
	calls    []Request
	Response Result
	Err      error
	// Hook, when set, overrides Response/Err per call.
	Hook func(req Request) (Result, error)
}

func (m *MockService) Generate(ctx context.Context, req Request) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		return hook(req)
	}
	return m.Response, m.Err
}

func (m *MockService) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Service = (*MockService)(nil)
