package fund

import (
	"context"
	"math/big"
	"sort"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/events"
	"github.com/bitfsorg/libfund-go/market"
)

// IssueDividend forwards amount of settlement currency to the payout
// gateway and appends a dividend event stamped with the current time.
func (f *Fund) IssueDividend(ctx context.Context, caller account.Account, amount *uint256.Int) error {
	amount = orZero(amount)
	return f.exec(ctx, "issue_dividend", caller, func(c *call) error {
		if err := f.onlyManager(caller); err != nil {
			return err
		}
		if err := f.mustBeFunded(); err != nil {
			return err
		}

		forward := market.AssetTransfer{
			Dest:     f.gateway.Address(),
			Currency: market.Ztg(),
			Amount:   new(uint256.Int).Set(amount),
		}
		if err := f.dispatch(c, forward); err != nil {
			return err
		}

		issuedAt := c.now
		// While the clock runs behind, c.now is the highest time already
		// used and holders may have settled at it. Issue just after it so
		// they are still owed this event; later calls never run below it.
		if c.steppedBack {
			issuedAt++
			f.lastNow = issuedAt
		}
		c.appendDividend(DividendEvent{IssuedAt: issuedAt, Amount: *amount})
		c.emit(events.DividendIssued{Amount: *amount, Timestamp: issuedAt})

		c.afterCommit(func() {
			f.metrics.ObserveDividendIssued(amount)
			f.logger.Info("dividend issued", zap.String("amount", amount.Dec()), zap.Uint64("issued_at", issuedAt))
		})
		return nil
	})
}

// Claim settles the caller's accrued dividend and returns the amount paid.
func (f *Fund) Claim(ctx context.Context, caller account.Account) (*uint256.Int, error) {
	var paid *uint256.Int
	err := f.exec(ctx, "claim", caller, func(c *call) error {
		amount, err := f.claimDividend(c, caller)
		paid = amount
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// CalcDividend returns what a would be paid if it claimed now.
func (f *Fund) CalcDividend(a account.Account) *uint256.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calcDividend(a)
}

// calcDividend sums every dividend issued strictly after a's watermark and
// scales it by a's current share of the supply. The current balance is
// used for all of them, including dividends issued before a acquired its
// shares.
func (f *Fund) calcDividend(a account.Account) *uint256.Int {
	balance := f.balanceOf(a)
	if balance.IsZero() {
		return new(uint256.Int)
	}

	watermark := f.watermarks[a]
	first := sort.Search(len(f.dividends), func(i int) bool {
		return f.dividends[i].IssuedAt > watermark
	})
	if first == len(f.dividends) {
		return new(uint256.Int)
	}

	sum := new(uint256.Int)
	for i := first; i < len(f.dividends); i++ {
		amt := f.dividends[i].Amount
		if _, overflow := sum.AddOverflow(sum, &amt); overflow {
			return proRataBig(f.dividends[first:], balance, &f.totalSupply)
		}
	}
	return proRata(sum, balance, &f.totalSupply)
}

// claimDividend settles a's accrual. The watermark moves before the
// gateway is called, so anything observing the fund mid-payout already
// sees a as settled.
func (f *Fund) claimDividend(c *call, a account.Account) (*uint256.Int, error) {
	amount := f.calcDividend(a)
	c.setWatermark(a, c.now)
	if amount.IsZero() {
		return amount, nil
	}

	if !f.gateway.Distribute(c.ctx, f.self, a, new(uint256.Int).Set(amount)) {
		f.metrics.ObserveDistributionFailure()
		f.logger.Warn("dividend distribution failed",
			zap.String("user", a.String()),
			zap.String("amount", amount.Dec()),
		)
		return nil, ErrDividendDistributionError
	}

	c.settled = append(c.settled, settlement{user: a, amount: *amount, at: c.now})
	c.emit(events.DividendClaimed{User: a, Amount: *amount, Timestamp: c.now})
	c.afterCommit(func() { f.metrics.ObserveClaim(amount) })
	return amount, nil
}

// proRata computes floor(sum * balance * P / supply / P).
func proRata(sum, balance, supply *uint256.Int) *uint256.Int {
	num, overflow := new(uint256.Int).MulOverflow(sum, balance)
	if !overflow {
		_, overflow = num.MulOverflow(num, dividendPrecision)
	}
	if overflow {
		return proRataFromBig(sum.ToBig(), balance, supply)
	}
	num.Div(num, supply)
	return num.Div(num, dividendPrecision)
}

func proRataBig(history []DividendEvent, balance, supply *uint256.Int) *uint256.Int {
	sum := new(big.Int)
	for _, evt := range history {
		sum.Add(sum, evt.Amount.ToBig())
	}
	return proRataFromBig(sum, balance, supply)
}

func proRataFromBig(sum *big.Int, balance, supply *uint256.Int) *uint256.Int {
	num := new(big.Int).Mul(sum, balance.ToBig())
	num.Mul(num, dividendPrecision.ToBig())
	num.Quo(num, supply.ToBig())
	num.Quo(num, dividendPrecision.ToBig())
	out, overflow := uint256.FromBig(num)
	if overflow {
		// Only reachable when the summed history itself exceeds 256 bits.
		return new(uint256.Int).SetAllOne()
	}
	return out
}
