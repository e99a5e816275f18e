package fund

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
)

// dividendPrecision is the fixed-point factor applied before dividing by the
// total supply.
var dividendPrecision = uint256.NewInt(1_000_000_000_000)

// Params are the construction-time settings of a fund.
type Params struct {
	Self              account.Account // the fund's own address
	Manager           account.Account
	TotalShares       *uint256.Int
	LockManagerShares bool
}

// DividendEvent is one immutable entry of the dividend history.
type DividendEvent struct {
	IssuedAt uint64
	Amount   uint256.Int
}

// AllowanceKey identifies an (owner, spender) allowance.
type AllowanceKey struct {
	Owner   account.Account
	Spender account.Account
}

// PayoutGateway is the custodial sink that holds dividend currency and pays
// it out on the fund's instruction. Distribute must refuse callers other
// than its registered fund, and must not call back into the fund
// synchronously: the fund is locked for the duration of the call.
type PayoutGateway interface {
	// Address is the gateway's own account; issued dividends are sent here.
	Address() account.Account

	// Fund returns the fund address the gateway accepts instructions from.
	Fund() account.Account

	// Distribute pays amount to dest and reports success.
	Distribute(ctx context.Context, caller, dest account.Account, amount *uint256.Int) bool
}

// Store persists committed fund state.
type Store interface {
	Save(state *State) error
}

// State is a deep copy of everything a fund owns.
type State struct {
	Self              account.Account
	Manager           account.Account
	TotalSupply       uint256.Int
	LockManagerShares bool
	FundingAmount     uint256.Int
	DividendWallet    account.Account
	Balances          map[account.Account]uint256.Int
	Allowances        map[AllowanceKey]uint256.Int
	Dividends         []DividendEvent
	Watermarks        map[account.Account]uint64
}

// NewState returns a State with empty maps.
func NewState() *State {
	return &State{
		Balances:   make(map[account.Account]uint256.Int),
		Allowances: make(map[AllowanceKey]uint256.Int),
		Watermarks: make(map[account.Account]uint64),
	}
}
