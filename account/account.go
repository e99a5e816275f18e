// Package account defines the opaque identity used by every fund mapping.
//
// An Account is 32 bytes. Accounts derived from secp256k1 keys are the
// SHA256 of the compressed public key.
package account

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Size is the length of an account id in bytes.
const Size = 32

// Account is an externally supplied identity.
type Account [Size]byte

// Reservoir is the mint reservoir. It holds the whole supply at construction
// and is drawn down as funding arrives.
var Reservoir Account

// Parse decodes a 64-character hex account id, with or without a 0x prefix.
func Parse(s string) (Account, error) {
	var a Account
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(trimmed) != Size*2 {
		return a, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidAccount, Size*2, len(trimmed))
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return a, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustParse is Parse for constants and tests; it panics on error.
func MustParse(s string) Account {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromPublicKey derives the account id of a secp256k1 public key.
func FromPublicKey(pub *ec.PublicKey) (Account, error) {
	if pub == nil {
		return Account{}, ErrNilPublicKey
	}
	return Account(sha256.Sum256(pub.Compressed())), nil
}

// Filled returns an account with every byte set to b.
func Filled(b byte) Account {
	var a Account
	for i := range a {
		a[i] = b
	}
	return a
}

// IsReservoir reports whether a is the mint reservoir.
func (a Account) IsReservoir() bool {
	return a == Reservoir
}

// String renders the account as 0x-prefixed lowercase hex.
func (a Account) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short renders the first four bytes, for log lines.
func (a Account) Short() string {
	return hex.EncodeToString(a[:4])
}

// MarshalText implements encoding.TextMarshaler.
func (a Account) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
