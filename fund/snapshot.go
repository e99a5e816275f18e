package fund

import (
	"fmt"
	"maps"
)

// Snapshot returns a deep copy of the fund's state.
func (f *Fund) Snapshot() *State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

func (f *Fund) snapshotLocked() *State {
	s := &State{
		Self:              f.self,
		Manager:           f.manager,
		TotalSupply:       f.totalSupply,
		LockManagerShares: f.lockManagerShares,
		FundingAmount:     f.fundingAmount,
		DividendWallet:    f.gateway.Address(),
		Balances:          maps.Clone(f.balances),
		Allowances:        maps.Clone(f.allowances),
		Dividends:         make([]DividendEvent, len(f.dividends)),
		Watermarks:        maps.Clone(f.watermarks),
	}
	copy(s.Dividends, f.dividends)
	return s
}

// Restore rebuilds a fund from a snapshot. The gateway must be supplied
// through WithGateway or WithNewGateway and must carry the address the
// snapshot was taken with.
func Restore(s *State, opts ...Option) (*Fund, error) {
	if s == nil {
		return nil, ErrNilState
	}
	if s.TotalSupply.IsZero() {
		return nil, ErrZeroSupply
	}
	if err := ValidateConservation(s.Balances, &s.TotalSupply); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	gw := o.gateway
	if gw == nil && o.newGateway != nil {
		gw = o.newGateway(s.Self)
	}
	if gw == nil {
		return nil, ErrNoGateway
	}
	if gw.Address() != s.DividendWallet {
		return nil, fmt.Errorf("%w: snapshot %s, gateway %s", ErrGatewayMismatch, s.DividendWallet.Short(), gw.Address().Short())
	}

	f := newFund(o, gw)
	f.self = s.Self
	f.manager = s.Manager
	f.totalSupply = s.TotalSupply
	f.lockManagerShares = s.LockManagerShares
	f.fundingAmount = s.FundingAmount
	f.dividends = append([]DividendEvent(nil), s.Dividends...)
	maps.Copy(f.balances, s.Balances)
	maps.Copy(f.allowances, s.Allowances)
	maps.Copy(f.watermarks, s.Watermarks)
	if n := len(f.dividends); n > 0 {
		f.lastNow = f.dividends[n-1].IssuedAt
	}
	for _, ts := range f.watermarks {
		f.lastNow = max(f.lastNow, ts)
	}
	return f, nil
}
