package network

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/market"
)

// RuntimeService is the host runtime a fund runs against: it executes
// delegated calls, supplies the block timestamp, and reports balances of
// the settlement currency.
type RuntimeService interface {
	market.Dispatcher

	// Timestamp returns the current block timestamp in milliseconds.
	Timestamp(ctx context.Context) (uint64, error)

	// FreeBalance returns the spendable balance of asset held by who.
	FreeBalance(ctx context.Context, who account.Account, asset market.Asset) (*uint256.Int, error)
}
