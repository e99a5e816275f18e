package fund

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/events"
)

// Transfer moves value shares from caller to to.
func (f *Fund) Transfer(ctx context.Context, caller, to account.Account, value *uint256.Int) error {
	value = orZero(value)
	return f.exec(ctx, "transfer", caller, func(c *call) error {
		return f.moveValue(c, caller, to, value)
	})
}

// Approve overwrites the allowance spender may pull from caller.
func (f *Fund) Approve(ctx context.Context, caller, spender account.Account, value *uint256.Int) error {
	value = orZero(value)
	return f.exec(ctx, "approve", caller, func(c *call) error {
		c.setAllowance(AllowanceKey{Owner: caller, Spender: spender}, value)
		c.emit(events.Approval{Owner: caller, Spender: spender, Value: *value})
		return nil
	})
}

// TransferFrom moves value shares from from to to, spending caller's allowance on from.
func (f *Fund) TransferFrom(ctx context.Context, caller, from, to account.Account, value *uint256.Int) error {
	value = orZero(value)
	return f.exec(ctx, "transfer_from", caller, func(c *call) error {
		allowance := f.allowance(from, caller)
		if allowance.Lt(value) {
			return fmt.Errorf("%w: allowance %s < %s", ErrInsufficientAllowance, allowance.Dec(), value.Dec())
		}
		if err := f.moveValue(c, from, to, value); err != nil {
			return err
		}
		c.setAllowance(AllowanceKey{Owner: from, Spender: caller}, allowance.Sub(allowance, value))
		return nil
	})
}

// moveValue is the only place balances change. It enforces the manager
// lock and the balance check, then settles pending dividends for both
// parties before any share moves, so unclaimed accrual never travels with
// the shares.
func (f *Fund) moveValue(c *call, from, to account.Account, value *uint256.Int) error {
	if from == f.manager && f.lockManagerShares {
		return ErrManagerSharesAreLocked
	}
	fromBalance := f.balanceOf(from)
	if fromBalance.Lt(value) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Short(), fromBalance.Dec(), value.Dec())
	}

	if _, err := f.claimDividend(c, from); err != nil {
		return err
	}
	if _, err := f.claimDividend(c, to); err != nil {
		return err
	}

	c.setBalance(from, fromBalance.Sub(fromBalance, value))
	toBalance := f.balanceOf(to)
	c.setBalance(to, toBalance.Add(toBalance, value))

	evt := events.Transfer{To: &to, Value: *value}
	if !from.IsReservoir() {
		evt.From = &from
	}
	c.emit(evt)
	return nil
}

// Conserved reports whether the balances sum to the total supply.
func (f *Fund) Conserved() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ValidateConservation(f.balances, &f.totalSupply) == nil
}

// ValidateConservation checks that balances sum exactly to supply.
func ValidateConservation(balances map[account.Account]uint256.Int, supply *uint256.Int) error {
	var total uint256.Int
	for _, b := range balances {
		if _, overflow := total.AddOverflow(&total, &b); overflow {
			return fmt.Errorf("%w: balance sum overflows", ErrConservationViolated)
		}
	}
	if !total.Eq(supply) {
		return fmt.Errorf("%w: balances=%s supply=%s", ErrConservationViolated, total.Dec(), supply.Dec())
	}
	return nil
}
