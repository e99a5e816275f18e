// Package market describes the delegated calls a fund manager may route to
// the external market runtime, and the boundary the fund dispatches them
// through. The fund never interprets a call; it only forwards it and checks
// the outcome.
package market

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
)

// Pallet names used in the wire envelope.
const (
	PalletAssetManager      = "asset_manager"
	PalletSwaps             = "swaps"
	PalletPredictionMarkets = "prediction_markets"
)

// Call is an opaque call descriptor. The set of variants is closed.
type Call interface {
	Pallet() string
	Name() string
	Validate() error
	isCall()
}

// SwapsCall is a call into the swaps pallet.
type SwapsCall interface {
	Call
	isSwapsCall()
}

// PredictionMarketsCall is a call into the prediction markets pallet.
type PredictionMarketsCall interface {
	Call
	isPredictionMarketsCall()
}

// Dispatcher executes calls on behalf of origin. A failure reported by the
// runtime wraps ErrCallRuntimeFailed; any other error is a host-level abort.
type Dispatcher interface {
	Dispatch(ctx context.Context, origin account.Account, call Call) error
}

// ---------------------------------------------------------------------------
// Asset manager
// ---------------------------------------------------------------------------

// AssetTransfer moves currency from the origin to Dest.
type AssetTransfer struct {
	Dest     account.Account `json:"dest"`
	Currency Asset           `json:"currency"`
	Amount   *uint256.Int    `json:"amount"`
}

func (AssetTransfer) Pallet() string { return PalletAssetManager }
func (AssetTransfer) Name() string   { return "transfer" }
func (AssetTransfer) isCall()        {}

// Validate implements Call.
func (c AssetTransfer) Validate() error {
	if c.Amount == nil {
		return fmt.Errorf("%w: transfer amount", ErrInvalidCall)
	}
	return c.Currency.Validate()
}

// ---------------------------------------------------------------------------
// Swaps
// ---------------------------------------------------------------------------

// PoolExit burns pool shares for the underlying assets.
type PoolExit struct {
	PoolID       *uint256.Int   `json:"pool_id"`
	PoolAmount   *uint256.Int   `json:"pool_amount"`
	MinAssetsOut []*uint256.Int `json:"min_assets_out"`
}

// PoolJoin mints pool shares against the underlying assets.
type PoolJoin struct {
	PoolID      *uint256.Int   `json:"pool_id"`
	PoolAmount  *uint256.Int   `json:"pool_amount"`
	MaxAssetsIn []*uint256.Int `json:"max_assets_in"`
}

// SwapExactAmountIn sells an exact amount of AssetIn.
type SwapExactAmountIn struct {
	PoolID            *uint256.Int `json:"pool_id"`
	AssetIn           Asset        `json:"asset_in"`
	AssetAmountIn     *uint256.Int `json:"asset_amount_in"`
	AssetOut          Asset        `json:"asset_out"`
	MinAssetAmountOut *uint256.Int `json:"min_asset_amount_out,omitempty"`
	MaxPrice          *uint256.Int `json:"max_price,omitempty"`
}

// SwapExactAmountOut buys an exact amount of AssetOut.
type SwapExactAmountOut struct {
	PoolID           *uint256.Int `json:"pool_id"`
	AssetIn          Asset        `json:"asset_in"`
	MaxAssetAmountIn *uint256.Int `json:"max_asset_amount_in,omitempty"`
	AssetOut         Asset        `json:"asset_out"`
	AssetAmountOut   *uint256.Int `json:"asset_amount_out"`
	MaxPrice         *uint256.Int `json:"max_price,omitempty"`
}

func (PoolExit) Pallet() string           { return PalletSwaps }
func (PoolJoin) Pallet() string           { return PalletSwaps }
func (SwapExactAmountIn) Pallet() string  { return PalletSwaps }
func (SwapExactAmountOut) Pallet() string { return PalletSwaps }

func (PoolExit) Name() string           { return "pool_exit" }
func (PoolJoin) Name() string           { return "pool_join" }
func (SwapExactAmountIn) Name() string  { return "swap_exact_amount_in" }
func (SwapExactAmountOut) Name() string { return "swap_exact_amount_out" }

func (PoolExit) isCall()           {}
func (PoolJoin) isCall()           {}
func (SwapExactAmountIn) isCall()  {}
func (SwapExactAmountOut) isCall() {}

func (PoolExit) isSwapsCall()           {}
func (PoolJoin) isSwapsCall()           {}
func (SwapExactAmountIn) isSwapsCall()  {}
func (SwapExactAmountOut) isSwapsCall() {}

// Validate implements Call.
func (c PoolExit) Validate() error {
	return requireAmounts("pool_exit", c.PoolID, c.PoolAmount)
}

// Validate implements Call.
func (c PoolJoin) Validate() error {
	return requireAmounts("pool_join", c.PoolID, c.PoolAmount)
}

// Validate implements Call.
func (c SwapExactAmountIn) Validate() error {
	if err := requireAmounts("swap_exact_amount_in", c.PoolID, c.AssetAmountIn); err != nil {
		return err
	}
	return validateAssets(c.AssetIn, c.AssetOut)
}

// Validate implements Call.
func (c SwapExactAmountOut) Validate() error {
	if err := requireAmounts("swap_exact_amount_out", c.PoolID, c.AssetAmountOut); err != nil {
		return err
	}
	return validateAssets(c.AssetIn, c.AssetOut)
}

// ---------------------------------------------------------------------------
// Prediction markets
// ---------------------------------------------------------------------------

// BuyCompleteSet buys one of every outcome of a market.
type BuyCompleteSet struct {
	MarketID *uint256.Int `json:"market_id"`
	Amount   *uint256.Int `json:"amount"`
}

// RedeemShares redeems winning outcome shares of a resolved market.
type RedeemShares struct {
	MarketID *uint256.Int `json:"market_id"`
}

// SellCompleteSet sells one of every outcome of a market back for currency.
type SellCompleteSet struct {
	MarketID *uint256.Int `json:"market_id"`
	Amount   *uint256.Int `json:"amount"`
}

func (BuyCompleteSet) Pallet() string  { return PalletPredictionMarkets }
func (RedeemShares) Pallet() string    { return PalletPredictionMarkets }
func (SellCompleteSet) Pallet() string { return PalletPredictionMarkets }

func (BuyCompleteSet) Name() string  { return "buy_complete_set" }
func (RedeemShares) Name() string    { return "redeem_shares" }
func (SellCompleteSet) Name() string { return "sell_complete_set" }

func (BuyCompleteSet) isCall()  {}
func (RedeemShares) isCall()    {}
func (SellCompleteSet) isCall() {}

func (BuyCompleteSet) isPredictionMarketsCall()  {}
func (RedeemShares) isPredictionMarketsCall()    {}
func (SellCompleteSet) isPredictionMarketsCall() {}

// Validate implements Call.
func (c BuyCompleteSet) Validate() error {
	return requireAmounts("buy_complete_set", c.MarketID, c.Amount)
}

// Validate implements Call.
func (c RedeemShares) Validate() error {
	return requireAmounts("redeem_shares", c.MarketID)
}

// Validate implements Call.
func (c SellCompleteSet) Validate() error {
	return requireAmounts("sell_complete_set", c.MarketID, c.Amount)
}

func requireAmounts(call string, values ...*uint256.Int) error {
	for i, v := range values {
		if v == nil {
			return fmt.Errorf("%w: %s field %d is nil", ErrInvalidCall, call, i)
		}
	}
	return nil
}

func validateAssets(assets ...Asset) error {
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}
