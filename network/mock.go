package network

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/market"
)

// MockRuntimeService is a test double for RuntimeService.
// All function fields must be set before the corresponding method is called.
type MockRuntimeService struct {
	DispatchFn    func(ctx context.Context, origin account.Account, call market.Call) error
	TimestampFn   func(ctx context.Context) (uint64, error)
	FreeBalanceFn func(ctx context.Context, who account.Account, asset market.Asset) (*uint256.Int, error)
}

func (m *MockRuntimeService) Dispatch(ctx context.Context, origin account.Account, call market.Call) error {
	return m.DispatchFn(ctx, origin, call)
}
func (m *MockRuntimeService) Timestamp(ctx context.Context) (uint64, error) {
	return m.TimestampFn(ctx)
}
func (m *MockRuntimeService) FreeBalance(ctx context.Context, who account.Account, asset market.Asset) (*uint256.Int, error) {
	return m.FreeBalanceFn(ctx, who, asset)
}
