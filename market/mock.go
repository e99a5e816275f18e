package market

import (
	"context"
	"sync"

	"github.com/bitfsorg/libfund-go/account"
)

// Dispatched is one call observed by MockDispatcher.
type Dispatched struct {
	Origin account.Account
	Call   Call
}

// MockDispatcher is a test double for Dispatcher. When DispatchFn is nil
// every call succeeds.
type MockDispatcher struct {
	DispatchFn func(ctx context.Context, origin account.Account, call Call) error

	mu    sync.Mutex
	calls []Dispatched
}

// Dispatch records the call and delegates to DispatchFn.
func (m *MockDispatcher) Dispatch(ctx context.Context, origin account.Account, call Call) error {
	m.mu.Lock()
	m.calls = append(m.calls, Dispatched{Origin: origin, Call: call})
	m.mu.Unlock()
	if m.DispatchFn == nil {
		return nil
	}
	return m.DispatchFn(ctx, origin, call)
}

// Calls returns a copy of all recorded calls.
func (m *MockDispatcher) Calls() []Dispatched {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Dispatched, len(m.calls))
	copy(out, m.calls)
	return out
}
