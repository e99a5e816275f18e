package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libfund-go/account"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// --- Mnemonic tests ---

func TestGenerateMnemonic(t *testing.T) {
	tests := []struct {
		name  string
		bits  int
		words int
	}{
		{"12 words", Mnemonic12Words, 12},
		{"24 words", Mnemonic24Words, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := GenerateMnemonic(tt.bits)
			require.NoError(t, err)
			assert.Len(t, strings.Fields(m), tt.words)
			assert.True(t, ValidateMnemonic(m))
		})
	}
}

func TestGenerateMnemonic_InvalidEntropy(t *testing.T) {
	for _, bits := range []int{0, 64, 192, 512} {
		_, err := GenerateMnemonic(bits)
		assert.ErrorIs(t, err, ErrInvalidEntropy)
	}
}

func TestSeedFromMnemonic(t *testing.T) {
	a, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = SeedFromMnemonic("abandon abandon abandon", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

// --- Seed encryption tests ---

func TestEncryptDecryptSeed_RoundTrip(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}

	encrypted, err := EncryptSeed(seed, "test-password-123")
	require.NoError(t, err)
	assert.Len(t, encrypted, SaltLen+NonceLen+len(seed)+ChecksumLen+16)

	decrypted, err := DecryptSeed(encrypted, "test-password-123")
	require.NoError(t, err)
	assert.Equal(t, seed, decrypted)

	other, err := EncryptSeed(seed, "test-password-123")
	require.NoError(t, err)
	assert.NotEqual(t, encrypted, other, "salt and nonce are random")
}

func TestDecryptSeed_Failures(t *testing.T) {
	seed := make([]byte, 64)
	encrypted, err := EncryptSeed(seed, "correct")
	require.NoError(t, err)

	_, err = DecryptSeed(encrypted, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	corrupted := append([]byte{}, encrypted...)
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err = DecryptSeed(corrupted, "correct")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = DecryptSeed([]byte{1, 2, 3}, "correct")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = EncryptSeed(nil, "correct")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestSaveLoadSeed(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	require.NoError(t, SaveSeed(dir, seed, "pw"))
	info, err := os.Stat(filepath.Join(dir, SeedFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := LoadSeed(dir, "pw")
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	_, err = LoadSeed(dir, "nope")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

// --- HD derivation tests ---

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	w, err := NewWallet(seed, "mainnet")
	require.NoError(t, err)
	return w
}

func TestNewWallet(t *testing.T) {
	_, err := NewWallet(nil, "mainnet")
	assert.ErrorIs(t, err, ErrInvalidSeed)

	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	w, err := NewWallet(seed, "")
	require.NoError(t, err)
	assert.Equal(t, "mainnet", w.Network())
}

func TestDeriveCaller(t *testing.T) {
	w := newTestWallet(t)

	kp, err := w.DeriveCaller(0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/236'/2'/0/0", kp.Path)
	require.NotNil(t, kp.PrivateKey)

	want, err := account.FromPublicKey(kp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, want, kp.Account)
	assert.False(t, kp.Account.IsReservoir())

	again, err := w.DeriveCaller(0)
	require.NoError(t, err)
	assert.Equal(t, kp.Account, again.Account)

	next, err := w.DeriveCaller(1)
	require.NoError(t, err)
	assert.NotEqual(t, kp.Account, next.Account)

	_, err = w.DeriveCaller(Hardened)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeriveFundAndDividendWallet(t *testing.T) {
	w := newTestWallet(t)

	f, err := w.DeriveFundKey(0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/236'/3'/0/0", f.Path)

	d, err := w.DeriveDividendWalletKey(0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/236'/3'/1/0", d.Path)

	c, err := w.DeriveCaller(0)
	require.NoError(t, err)

	assert.NotEqual(t, f.Account, d.Account)
	assert.NotEqual(t, f.Account, c.Account)
}

func TestNewWallet_NetworkDoesNotChangeAccounts(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	mainnet, err := NewWallet(seed, "mainnet")
	require.NoError(t, err)
	testnet, err := NewWallet(seed, "testnet")
	require.NoError(t, err)

	a, err := mainnet.DeriveCaller(3)
	require.NoError(t, err)
	b, err := testnet.DeriveCaller(3)
	require.NoError(t, err)
	assert.Equal(t, a.Account, b.Account)
}

// --- Keyring tests ---

func TestKeyring_AddAndLookup(t *testing.T) {
	w := newTestWallet(t)
	state := NewKeyringState()

	manager, kp, err := w.AddLabel(state, "manager")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), manager.Index)

	alice, _, err := w.AddLabel(state, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), alice.Index)

	got, err := w.Caller(state, "manager")
	require.NoError(t, err)
	assert.Equal(t, kp.Account, got.Account)

	_, _, err = w.AddLabel(state, "alice")
	assert.ErrorIs(t, err, ErrLabelExists)
	_, _, err = w.AddLabel(state, "  ")
	assert.ErrorIs(t, err, ErrInvalidLabel)
	_, err = w.Caller(state, "bob")
	assert.ErrorIs(t, err, ErrLabelNotFound)
}

func TestKeyring_RemoveDoesNotReuseIndex(t *testing.T) {
	w := newTestWallet(t)
	state := NewKeyringState()

	_, _, err := w.AddLabel(state, "temp")
	require.NoError(t, err)
	require.NoError(t, state.RemoveLabel("temp"))
	assert.ErrorIs(t, state.RemoveLabel("temp"), ErrLabelNotFound)
	assert.Empty(t, state.ListLabels())

	again, _, err := w.AddLabel(state, "temp")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), again.Index)
	assert.Len(t, state.ListLabels(), 1)
}

func TestKeyring_Validate(t *testing.T) {
	tests := []struct {
		name    string
		state   KeyringState
		wantErr bool
	}{
		{"empty", KeyringState{}, false},
		{"ok", KeyringState{Labels: []Label{{Name: "a", Index: 0}, {Name: "b", Index: 1}}, NextIndex: 2}, false},
		{"duplicate index", KeyringState{Labels: []Label{{Name: "a", Index: 0}, {Name: "b", Index: 0}}, NextIndex: 1}, true},
		{"next index behind", KeyringState{Labels: []Label{{Name: "a", Index: 4}}, NextIndex: 2}, true},
		{"out of range", KeyringState{Labels: []Label{{Name: "a", Index: Hardened}}, NextIndex: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKeyring_SaveLoad(t *testing.T) {
	dir := t.TempDir()

	empty, err := LoadKeyring(dir)
	require.NoError(t, err)
	assert.Empty(t, empty.Labels)

	w := newTestWallet(t)
	_, _, err = w.AddLabel(empty, "manager")
	require.NoError(t, err)
	require.NoError(t, SaveKeyring(dir, empty))

	loaded, err := LoadKeyring(dir)
	require.NoError(t, err)
	assert.Equal(t, empty, loaded)

	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyringFileName), []byte("{"), 0600))
	_, err = LoadKeyring(dir)
	assert.Error(t, err)
}
