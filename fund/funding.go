package fund

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
)

// Fund accepts value units of consideration from caller and mints the same
// number of shares out of the reservoir. A deposit that would push the
// cumulative funding past the total supply is rejected whole.
func (f *Fund) Fund(ctx context.Context, caller account.Account, value *uint256.Int) error {
	value = orZero(value)
	return f.exec(ctx, "fund", caller, func(c *call) error {
		next, overflow := new(uint256.Int).AddOverflow(&f.fundingAmount, value)
		if overflow || next.Gt(&f.totalSupply) {
			return fmt.Errorf("%w: %s + %s > %s", ErrFundingTooMuch, f.fundingAmount.Dec(), value.Dec(), f.totalSupply.Dec())
		}
		if err := f.moveValue(c, account.Reservoir, caller, value); err != nil {
			return err
		}
		c.setFundingAmount(next)

		c.afterCommit(func() {
			f.metrics.SetFundingAmount(next)
			if next.Eq(&f.totalSupply) {
				f.logger.Info("fund fully funded", zap.String("fund", f.self.String()), zap.String("amount", next.Dec()))
			}
		})
		return nil
	})
}

// InitialFundingAmount returns the cumulative consideration received.
func (f *Fund) InitialFundingAmount() *uint256.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return new(uint256.Int).Set(&f.fundingAmount)
}

// IsFunded reports whether the funding goal has been reached.
func (f *Fund) IsFunded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isFunded()
}

func (f *Fund) isFunded() bool {
	return f.fundingAmount.Eq(&f.totalSupply)
}

func (f *Fund) mustBeFunded() error {
	if !f.isFunded() {
		return ErrMustBeFunded
	}
	return nil
}
