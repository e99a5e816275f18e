package market

import "errors"

var (
	// ErrCallRuntimeFailed indicates the runtime executed the call and reported failure.
	// It is the only recoverable dispatch failure.
	ErrCallRuntimeFailed = errors.New("market: call runtime failed")

	// ErrUnknownCall indicates an envelope names a pallet/call pair that is not recognized.
	ErrUnknownCall = errors.New("market: unknown call")

	// ErrInvalidCall indicates a call descriptor is missing required fields.
	ErrInvalidCall = errors.New("market: invalid call")

	// ErrInvalidAsset indicates an asset descriptor is malformed.
	ErrInvalidAsset = errors.New("market: invalid asset")
)
