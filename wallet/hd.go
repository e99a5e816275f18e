package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/libfund-go/account"
)

const (
	// BIP44 path constants.
	PurposeBIP44 = 44
	CoinType     = 236

	// Account levels.
	CallerAccount = 2 // m/44'/236'/2'/0/i: identities that call into a fund
	FundAccount   = 3 // m/44'/236'/3'/{chain}/i: fund and dividend wallet addresses

	// Chains under FundAccount.
	FundChain           = 0
	DividendWalletChain = 1

	// MaxIndex is the largest non-hardened child index.
	MaxIndex = 1<<31 - 1

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet is an HD wallet over a single BIP39 seed.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   string
}

// KeyPair holds a derived key pair and the account it controls.
type KeyPair struct {
	PrivateKey *ec.PrivateKey  `json:"-"`
	PublicKey  *ec.PublicKey   `json:"public_key"`
	Account    account.Account `json:"account"`
	Path       string          `json:"path"`
}

// NewWallet creates a Wallet from a BIP39 seed. Any network other than
// "mainnet" uses testnet extended-key versions.
func NewWallet(seed []byte, network string) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == "" {
		network = "mainnet"
	}

	params := &chaincfg.TestNet
	if network == "mainnet" {
		params = &chaincfg.MainNet
	}

	masterKey, err := bip32.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{masterKey: masterKey, network: network}, nil
}

// Network returns the network the wallet was created for.
func (w *Wallet) Network() string {
	return w.network
}

// DeriveCaller derives caller identity index.
//
//	Path: m/44'/236'/2'/0/index
func (w *Wallet) DeriveCaller(index uint32) (*KeyPair, error) {
	return w.derive(CallerAccount, 0, index)
}

// DeriveFundKey derives the address of fund index.
//
//	Path: m/44'/236'/3'/0/index
func (w *Wallet) DeriveFundKey(index uint32) (*KeyPair, error) {
	return w.derive(FundAccount, FundChain, index)
}

// DeriveDividendWalletKey derives the dividend wallet address paired with fund index.
//
//	Path: m/44'/236'/3'/1/index
func (w *Wallet) DeriveDividendWalletKey(index uint32) (*KeyPair, error) {
	return w.derive(FundAccount, DividendWalletChain, index)
}

func (w *Wallet) derive(acct, chain, index uint32) (*KeyPair, error) {
	if index > MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	key := w.masterKey
	steps := []struct {
		name  string
		child uint32
	}{
		{"purpose", PurposeBIP44 + Hardened},
		{"coin type", CoinType + Hardened},
		{"account", acct + Hardened},
		{"chain", chain},
		{"index", index},
	}
	for _, s := range steps {
		next, err := key.Child(s.child)
		if err != nil {
			return nil, fmt.Errorf("%w: %s derivation: %w", ErrDerivationFailed, s.name, err)
		}
		key = next
	}

	return extKeyToKeyPair(key, fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", PurposeBIP44, CoinType, acct, chain, index))
}

// extKeyToKeyPair converts a BIP32 extended key to a KeyPair.
func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: derive public key", ErrDerivationFailed)
	}

	acct, err := account.FromPublicKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Account:    acct,
		Path:       path,
	}, nil
}
