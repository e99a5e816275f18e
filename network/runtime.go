package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/market"
)

// Runtime RPC methods.
const (
	MethodDispatch    = "runtime_dispatch"
	MethodTimestamp   = "runtime_timestamp"
	MethodFreeBalance = "runtime_freeBalance"
)

// Compile-time interface check.
var _ RuntimeService = (*RuntimeClient)(nil)

// RuntimeClient implements RuntimeService over JSON-RPC.
type RuntimeClient struct {
	rpc    *RPCClient
	logger *zap.Logger
}

// NewRuntimeClient wraps rpc. A nil logger is replaced by a no-op logger.
func NewRuntimeClient(rpc *RPCClient, logger *zap.Logger) *RuntimeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuntimeClient{rpc: rpc, logger: logger}
}

// Dispatch sends call as origin. An error object from the node means the
// runtime executed and rejected the call, and wraps
// market.ErrCallRuntimeFailed. Transport and decoding failures are returned
// unconverted.
func (c *RuntimeClient) Dispatch(ctx context.Context, origin account.Account, call market.Call) error {
	env, err := market.NewEnvelope(call)
	if err != nil {
		return err
	}

	err = c.rpc.Call(ctx, MethodDispatch, []interface{}{origin.String(), env}, nil)
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		c.logger.Debug("runtime rejected call",
			zap.String("pallet", env.Pallet),
			zap.String("call", env.Call),
			zap.Int("code", rpcErr.Code),
			zap.String("message", rpcErr.Message),
		)
		return fmt.Errorf("%w: %w", market.ErrCallRuntimeFailed, rpcErr)
	}
	return err
}

// Timestamp implements RuntimeService.
func (c *RuntimeClient) Timestamp(ctx context.Context) (uint64, error) {
	var ts uint64
	if err := c.rpc.Call(ctx, MethodTimestamp, nil, &ts); err != nil {
		return 0, err
	}
	return ts, nil
}

// FreeBalance implements RuntimeService. The node reports the balance as a
// decimal string.
func (c *RuntimeClient) FreeBalance(ctx context.Context, who account.Account, asset market.Asset) (*uint256.Int, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	assetJSON, err := json.Marshal(asset)
	if err != nil {
		return nil, fmt.Errorf("network: encode asset: %w", err)
	}

	var raw string
	if err := c.rpc.Call(ctx, MethodFreeBalance, []interface{}{who.String(), json.RawMessage(assetJSON)}, &raw); err != nil {
		return nil, err
	}
	balance, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: balance %q: %w", ErrInvalidResponse, raw, err)
	}
	return balance, nil
}
