package fund

import "errors"

var (
	// ErrInsufficientBalance indicates the source balance is below the transfer value.
	ErrInsufficientBalance = errors.New("fund: insufficient balance")

	// ErrInsufficientAllowance indicates the spender's allowance is below the transfer value.
	ErrInsufficientAllowance = errors.New("fund: insufficient allowance")

	// ErrOnlyManagerAllowed indicates a manager-only entry point was called by someone else.
	ErrOnlyManagerAllowed = errors.New("fund: only the manager is allowed")

	// ErrMustBeFunded indicates the funding goal has not been reached yet.
	ErrMustBeFunded = errors.New("fund: fund must be fully funded")

	// ErrFundingTooMuch indicates a deposit would push funding past the total supply.
	ErrFundingTooMuch = errors.New("fund: funding exceeds total supply")

	// ErrManagerSharesAreLocked indicates the manager's shares cannot leave its account.
	ErrManagerSharesAreLocked = errors.New("fund: manager shares are locked")

	// ErrCallRuntimeFailed indicates the runtime rejected a delegated call.
	ErrCallRuntimeFailed = errors.New("fund: call runtime failed")

	// ErrDividendDistributionError indicates the payout gateway refused or failed a payout.
	ErrDividendDistributionError = errors.New("fund: dividend distribution failed")

	// ErrRuntimeAborted indicates the host failed unexpectedly during a delegated call.
	// It is never converted into ErrCallRuntimeFailed.
	ErrRuntimeAborted = errors.New("fund: runtime aborted")

	// ErrStorePersist indicates the committed state could not be persisted.
	ErrStorePersist = errors.New("fund: persist state")

	// ErrZeroSupply indicates a fund was constructed with zero total shares.
	ErrZeroSupply = errors.New("fund: total shares must be positive")

	// ErrNoGateway indicates no payout gateway was supplied at construction.
	ErrNoGateway = errors.New("fund: payout gateway not configured")

	// ErrGatewayMismatch indicates a restored fund was given a different payout gateway.
	ErrGatewayMismatch = errors.New("fund: payout gateway does not match state")

	// ErrNilState indicates Restore was called without a snapshot.
	ErrNilState = errors.New("fund: state is nil")
)

// ErrConservationViolated indicates balances no longer sum to the total supply.
var ErrConservationViolated = errors.New("fund: share conservation violated")
