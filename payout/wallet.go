// Package payout implements the dividend wallet: the custodial account that
// receives issued dividends and pays them out on its fund's instruction.
package payout

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/market"
	"github.com/bitfsorg/libfund-go/metrics"
)

// Wallet is a payout gateway bound to exactly one fund.
type Wallet struct {
	address    account.Account
	fund       account.Account
	currency   market.Asset
	dispatcher market.Dispatcher
	logger     *zap.Logger
	metrics    *metrics.FundMetrics

	mu          sync.Mutex
	distributed uint256.Int
	payouts     uint64
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Wallet) { w.logger = l }
}

// WithMetrics sets the metrics sink used to count rejected callers.
func WithMetrics(m *metrics.FundMetrics) Option {
	return func(w *Wallet) { w.metrics = m }
}

// WithCurrency overrides the settlement currency (default ZTG).
func WithCurrency(a market.Asset) Option {
	return func(w *Wallet) { w.currency = a }
}

// New creates a wallet at address that only honours fund. Payouts are
// asset transfers dispatched with the wallet as origin.
func New(address, fund account.Account, dispatcher market.Dispatcher, opts ...Option) *Wallet {
	w := &Wallet{
		address:    address,
		fund:       fund,
		currency:   market.Ztg(),
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Address returns the wallet's own account.
func (w *Wallet) Address() account.Account { return w.address }

// Fund returns the only account Distribute accepts instructions from.
func (w *Wallet) Fund() account.Account { return w.fund }

// Distribute pays amount to dest. It returns false when caller is not the
// registered fund or the transfer fails; it never panics on bad input.
func (w *Wallet) Distribute(ctx context.Context, caller, dest account.Account, amount *uint256.Int) bool {
	if caller != w.fund {
		w.metrics.ObserveGatewayRejection()
		w.logger.Warn("distribute rejected",
			zap.String("caller", caller.String()),
			zap.String("fund", w.fund.String()),
		)
		return false
	}
	if amount == nil || w.dispatcher == nil {
		return false
	}

	transfer := market.AssetTransfer{
		Dest:     dest,
		Currency: w.currency,
		Amount:   new(uint256.Int).Set(amount),
	}
	if err := w.dispatcher.Dispatch(ctx, w.address, transfer); err != nil {
		w.logger.Warn("payout transfer failed",
			zap.String("dest", dest.String()),
			zap.String("amount", amount.Dec()),
			zap.Error(err),
		)
		return false
	}

	w.mu.Lock()
	w.distributed.Add(&w.distributed, amount)
	w.payouts++
	w.mu.Unlock()
	w.logger.Debug("dividend paid", zap.String("dest", dest.Short()), zap.String("amount", amount.Dec()))
	return true
}

// Distributed returns the total paid out and the number of payouts.
func (w *Wallet) Distributed() (*uint256.Int, uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return new(uint256.Int).Set(&w.distributed), w.payouts
}
