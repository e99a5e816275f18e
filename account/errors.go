package account

import "errors"

var (
	// ErrInvalidAccount indicates an account string is not 32 bytes of hex.
	ErrInvalidAccount = errors.New("account: invalid account id")

	// ErrNilPublicKey indicates a nil public key was supplied for derivation.
	ErrNilPublicKey = errors.New("account: public key is nil")
)
