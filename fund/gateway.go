package fund

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/market"
)

// SwapCall forwards a swaps call to the market runtime on the fund's behalf.
func (f *Fund) SwapCall(ctx context.Context, caller account.Account, mc market.SwapsCall) error {
	return f.managerCall(ctx, "swap_call", caller, mc)
}

// PredictionMarketCall forwards a prediction-markets call to the market
// runtime on the fund's behalf.
func (f *Fund) PredictionMarketCall(ctx context.Context, caller account.Account, mc market.PredictionMarketsCall) error {
	return f.managerCall(ctx, "prediction_market_call", caller, mc)
}

func (f *Fund) managerCall(ctx context.Context, op string, caller account.Account, mc market.Call) error {
	return f.exec(ctx, op, caller, func(c *call) error {
		if err := f.onlyManager(caller); err != nil {
			return err
		}
		if err := f.mustBeFunded(); err != nil {
			return err
		}
		if mc == nil {
			return fmt.Errorf("%w: nil call", ErrCallRuntimeFailed)
		}
		if err := f.dispatch(c, mc); err != nil {
			return err
		}
		c.afterCommit(func() {
			f.logger.Info("market call dispatched",
				zap.String("pallet", mc.Pallet()),
				zap.String("call", mc.Name()),
			)
		})
		return nil
	})
}

func (f *Fund) onlyManager(caller account.Account) error {
	if caller != f.manager {
		return ErrOnlyManagerAllowed
	}
	return nil
}

// dispatch sends call to the runtime with the fund as origin. A failure the
// runtime reports is recoverable and becomes ErrCallRuntimeFailed; anything
// else aborts the call as ErrRuntimeAborted.
func (f *Fund) dispatch(c *call, mc market.Call) error {
	if err := mc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCallRuntimeFailed, err)
	}
	if f.dispatcher == nil {
		return fmt.Errorf("%w: no dispatcher configured", ErrRuntimeAborted)
	}

	err := f.dispatcher.Dispatch(c.ctx, f.self, mc)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, market.ErrCallRuntimeFailed):
		return fmt.Errorf("%w: %s.%s: %w", ErrCallRuntimeFailed, mc.Pallet(), mc.Name(), err)
	default:
		f.logger.Error("runtime aborted dispatch",
			zap.String("pallet", mc.Pallet()),
			zap.String("call", mc.Name()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrRuntimeAborted, err)
	}
}
