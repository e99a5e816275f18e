// Package fund implements a managed investment-fund token: a fixed-supply
// share ledger minted against deposits, a funding window that gates the
// manager, and a dividend engine that pays holders pro rata to their
// current balance.
//
// Every entry point runs as one atomic call: either all of its writes
// commit, or none remain visible. Calls are serialized.
package fund

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/events"
	"github.com/bitfsorg/libfund-go/market"
	"github.com/bitfsorg/libfund-go/metrics"
)

// Fund is the share ledger, funding controller and dividend engine of one
// fund instance.
type Fund struct {
	mu sync.RWMutex

	self              account.Account
	manager           account.Account
	totalSupply       uint256.Int
	lockManagerShares bool
	fundingAmount     uint256.Int

	balances   map[account.Account]uint256.Int
	allowances map[AllowanceKey]uint256.Int
	dividends  []DividendEvent
	watermarks map[account.Account]uint64

	// lastNow is the highest timestamp a call has run at. Call time never
	// goes below it, so watermarks and dividend timestamps stay ordered.
	lastNow uint64

	gateway    PayoutGateway
	dispatcher market.Dispatcher
	emitter    events.Emitter
	clock      func() uint64
	logger     *zap.Logger
	metrics    *metrics.FundMetrics
	store      Store
}

// Option configures a Fund.
type Option func(*options)

type options struct {
	gateway    PayoutGateway
	newGateway func(fund account.Account) PayoutGateway
	dispatcher market.Dispatcher
	emitter    events.Emitter
	clock      func() uint64
	logger     *zap.Logger
	metrics    *metrics.FundMetrics
	store      Store
}

// WithNewGateway instantiates a fresh payout gateway bound to the fund's address.
func WithNewGateway(factory func(fund account.Account) PayoutGateway) Option {
	return func(o *options) { o.newGateway = factory }
}

// WithGateway binds the fund to an existing payout gateway. The fund does
// not check that the gateway accepts it; see DividendWalletFund.
func WithGateway(gw PayoutGateway) Option {
	return func(o *options) { o.gateway = gw }
}

// WithDispatcher sets the runtime used for delegated calls and currency forwarding.
func WithDispatcher(d market.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// WithEmitter sets where committed notifications are sent.
func WithEmitter(e events.Emitter) Option {
	return func(o *options) { o.emitter = e }
}

// WithClock overrides the timestamp source (milliseconds).
func WithClock(now func() uint64) Option {
	return func(o *options) { o.clock = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.FundMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithStore persists a snapshot after every committed call.
func WithStore(s Store) Option {
	return func(o *options) { o.store = s }
}

func defaultClock() uint64 {
	return uint64(time.Now().UnixMilli())
}

// New creates a fund whose whole supply sits in the mint reservoir.
func New(p Params, opts ...Option) (*Fund, error) {
	if p.TotalShares == nil || p.TotalShares.IsZero() {
		return nil, ErrZeroSupply
	}
	o := applyOptions(opts)

	gw := o.gateway
	if gw == nil && o.newGateway != nil {
		gw = o.newGateway(p.Self)
	}
	if gw == nil {
		return nil, ErrNoGateway
	}

	f := newFund(o, gw)
	f.self = p.Self
	f.manager = p.Manager
	f.totalSupply = *p.TotalShares
	f.lockManagerShares = p.LockManagerShares
	f.balances[account.Reservoir] = *p.TotalShares

	f.logger.Info("fund created",
		zap.String("fund", p.Self.String()),
		zap.String("manager", p.Manager.String()),
		zap.String("total_shares", p.TotalShares.Dec()),
		zap.Bool("manager_locked", p.LockManagerShares),
		zap.String("dividend_wallet", gw.Address().String()),
	)
	return f, nil
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newFund(o *options, gw PayoutGateway) *Fund {
	f := &Fund{
		balances:   make(map[account.Account]uint256.Int),
		allowances: make(map[AllowanceKey]uint256.Int),
		watermarks: make(map[account.Account]uint64),
		gateway:    gw,
		dispatcher: o.dispatcher,
		emitter:    o.emitter,
		clock:      o.clock,
		logger:     o.logger,
		metrics:    o.metrics,
		store:      o.store,
	}
	if f.emitter == nil {
		f.emitter = events.NoopEmitter{}
	}
	if f.clock == nil {
		f.clock = defaultClock
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// exec runs fn as one atomic call.
func (f *Fund) exec(ctx context.Context, op string, caller account.Account, fn func(c *call) error) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := &call{f: f, ctx: ctx, caller: caller, now: f.clock()}
	if c.now < f.lastNow {
		c.now = f.lastNow
		c.steppedBack = true
	}
	f.lastNow = c.now
	defer func() { f.metrics.ObserveCall(op, err) }()

	if err = fn(c); err != nil {
		c.revert()
		// Payouts confirmed before the failure stay settled on disk too.
		if f.store != nil && len(c.settled) > 0 {
			if saveErr := f.store.Save(f.snapshotLocked()); saveErr != nil {
				f.logger.Error("paid settlements not persisted", zap.String("op", op), zap.Error(saveErr))
				err = fmt.Errorf("%w (%w: %w)", err, ErrStorePersist, saveErr)
			}
		}
		f.publish(c)
		f.logger.Debug("fund call reverted",
			zap.String("op", op),
			zap.String("caller", caller.Short()),
			zap.Error(err),
		)
		return err
	}

	if f.store != nil {
		if saveErr := f.store.Save(f.snapshotLocked()); saveErr != nil {
			c.revert()
			if len(c.settled) > 0 {
				if retryErr := f.store.Save(f.snapshotLocked()); retryErr != nil {
					f.logger.Error("paid settlements not persisted", zap.String("op", op), zap.Error(retryErr))
				}
			}
			f.publish(c)
			err = fmt.Errorf("%w: %w", ErrStorePersist, saveErr)
			f.logger.Error("fund state not persisted", zap.String("op", op), zap.Error(saveErr))
			return err
		}
	}

	f.publish(c)
	for _, fn := range c.onCommit {
		fn()
	}
	f.logger.Debug("fund call committed",
		zap.String("op", op),
		zap.String("caller", caller.Short()),
		zap.Uint64("now", c.now),
	)
	return nil
}

func (f *Fund) publish(c *call) {
	for _, evt := range c.pending {
		f.emitter.Emit(evt)
	}
	c.pending = nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Address returns the fund's own account.
func (f *Fund) Address() account.Account {
	return f.self
}

// Manager returns the manager account.
func (f *Fund) Manager() account.Account {
	return f.manager
}

// TotalSupply returns the fixed share supply.
func (f *Fund) TotalSupply() *uint256.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return new(uint256.Int).Set(&f.totalSupply)
}

// BalanceOf returns the shares held by a; unknown accounts hold zero.
func (f *Fund) BalanceOf(a account.Account) *uint256.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.balanceOf(a)
}

// Allowance returns how much spender may pull from owner.
func (f *Fund) Allowance(owner, spender account.Account) *uint256.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.allowance(owner, spender)
}

// ManagerShares returns the manager's balance.
func (f *Fund) ManagerShares() *uint256.Int {
	return f.BalanceOf(f.manager)
}

// ManagerIsLocked reports whether the manager's shares are frozen.
func (f *Fund) ManagerIsLocked() bool {
	return f.lockManagerShares
}

// LastDividendClaim returns a's claim watermark, zero if it never settled.
func (f *Fund) LastDividendClaim(a account.Account) uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.watermarks[a]
}

// Dividends returns a copy of the dividend history.
func (f *Fund) Dividends() []DividendEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]DividendEvent, len(f.dividends))
	copy(out, f.dividends)
	return out
}

// DividendWallet returns the payout gateway's address.
func (f *Fund) DividendWallet() account.Account {
	return f.gateway.Address()
}

// DividendWalletFund returns the fund address the payout gateway is bound
// to. It equals Address when the gateway will honour this fund.
func (f *Fund) DividendWalletFund() account.Account {
	return f.gateway.Fund()
}

func (f *Fund) balanceOf(a account.Account) *uint256.Int {
	b := f.balances[a]
	return new(uint256.Int).Set(&b)
}

func (f *Fund) allowance(owner, spender account.Account) *uint256.Int {
	v := f.allowances[AllowanceKey{Owner: owner, Spender: spender}]
	return new(uint256.Int).Set(&v)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
