package bot

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Mock implements Runtime for testing.
type Mock struct {
	// StartFunc is called when Start is invoked.
	// If nil, returns a result echoing the room with an incrementing pid.
	StartFunc func(ctx context.Context, params StartParams) (*StartResult, error)

	// StatusFunc is called when Status is invoked.
	// If nil, reports every started pid as running.
	StatusFunc func(ctx context.Context, pid int) (*Status, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	mu      sync.Mutex
	calls   []MockCall
	nextPID int
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Params StartParams
	PID    int
	Time   time.Time
}

// NewMock creates a mock runtime.
func NewMock() *Mock {
	return &Mock{nextPID: 1000}
}

// Start implements Dispatcher.
func (m *Mock) Start(ctx context.Context, params StartParams) (*StartResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Start", Params: params, Time: time.Now()})
	m.nextPID++
	pid := m.nextPID
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx, params)
	}
	return &StartResult{RoomURL: params.RoomURL, Token: params.Token, PID: pid}, nil
}

// Status implements Runtime.
func (m *Mock) Status(ctx context.Context, pid int) (*Status, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Status", PID: pid, Time: time.Now()})
	known := pid > 1000 && pid <= m.nextPID
	m.mu.Unlock()

	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, pid)
	}
	if !known {
		return nil, &APIError{StatusCode: 404, Message: "Bot not found"}
	}
	return &Status{PID: pid, Status: StatusRunning}, nil
}

// Health implements Runtime.
func (m *Mock) Health(ctx context.Context) error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Health", Time: time.Now()})
	m.mu.Unlock()

	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns the number of calls to a method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastStart returns the params of the most recent Start call.
func (m *Mock) LastStart() (StartParams, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Method == "Start" {
			return m.calls[i].Params, true
		}
	}
	return StartParams{}, false
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Runtime = (*Mock)(nil)
