package collector

import (
	"context"
	"sync"
	"time"
)

// Call records one request seen by MockFetcher.
type Call struct {
	Provider string
	URL      string
	At       time.Time
}

// MockFetcher answers from a handler for development and testing.
type MockFetcher struct {
	Handler func(provider, url string) ([]byte, error)
	Delay   time.Duration

	mu    sync.Mutex
	calls []Call
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(ctx context.Context, provider, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Provider: provider, URL: url, At: time.Now()})
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Handler == nil {
		return []byte("{}"), nil
	}
	return m.Handler(provider, url)
}

// Calls returns a copy of the recorded requests.
func (m *MockFetcher) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
