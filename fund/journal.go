package fund

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/events"
)

// settlement is a payout the gateway confirmed during a call.
type settlement struct {
	user   account.Account
	amount uint256.Int
	at     uint64
}

// call is the execution context of one entry point. Every state write goes
// through it so the call can be undone as a unit.
type call struct {
	f      *Fund
	ctx    context.Context
	caller account.Account
	now    uint64

	// steppedBack is set when the clock ran behind an earlier call.
	steppedBack bool

	undo     []func()
	pending  []events.Event
	settled  []settlement
	onCommit []func()
}

// afterCommit registers fn to run once the call has committed.
func (c *call) afterCommit(fn func()) {
	c.onCommit = append(c.onCommit, fn)
}

func (c *call) setBalance(a account.Account, v *uint256.Int) {
	prev, existed := c.f.balances[a]
	c.undo = append(c.undo, func() {
		if existed {
			c.f.balances[a] = prev
		} else {
			delete(c.f.balances, a)
		}
	})
	c.f.balances[a] = *v
}

func (c *call) setAllowance(k AllowanceKey, v *uint256.Int) {
	prev, existed := c.f.allowances[k]
	c.undo = append(c.undo, func() {
		if existed {
			c.f.allowances[k] = prev
		} else {
			delete(c.f.allowances, k)
		}
	})
	c.f.allowances[k] = *v
}

func (c *call) setWatermark(a account.Account, ts uint64) {
	prev, existed := c.f.watermarks[a]
	c.undo = append(c.undo, func() {
		if existed {
			c.f.watermarks[a] = prev
		} else {
			delete(c.f.watermarks, a)
		}
	})
	c.f.watermarks[a] = ts
}

func (c *call) setFundingAmount(v *uint256.Int) {
	prev := c.f.fundingAmount
	c.undo = append(c.undo, func() { c.f.fundingAmount = prev })
	c.f.fundingAmount = *v
}

func (c *call) appendDividend(evt DividendEvent) {
	n := len(c.f.dividends)
	c.undo = append(c.undo, func() { c.f.dividends = c.f.dividends[:n] })
	c.f.dividends = append(c.f.dividends, evt)
}

func (c *call) emit(evt events.Event) {
	c.pending = append(c.pending, evt)
}

// revert undoes every write in reverse order, then re-records the
// settlements that were already paid so they cannot be paid twice.
func (c *call) revert() {
	for i := len(c.undo) - 1; i >= 0; i-- {
		c.undo[i]()
	}
	c.undo = nil
	c.pending = nil
	c.onCommit = nil
	for _, s := range c.settled {
		c.f.watermarks[s.user] = s.at
		c.pending = append(c.pending, events.DividendClaimed{User: s.user, Amount: s.amount, Timestamp: s.at})
	}
}
