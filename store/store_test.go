package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/fund"
	"github.com/bitfsorg/libfund-go/market"
	"github.com/bitfsorg/libfund-go/payout"
)

var (
	fundAddr   = account.Filled(0xF0)
	walletAddr = account.Filled(0xD0)
	manager    = account.Filled(0x01)
	alice      = account.Filled(0x02)
	bob        = account.Filled(0x03)
)

func tempBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenBoltStore(filepath.Join(dir, "fund.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func gatewayFor(d market.Dispatcher) fund.Option {
	return fund.WithNewGateway(func(self account.Account) fund.PayoutGateway {
		return payout.New(walletAddr, self, d)
	})
}

// sampleFund returns a funded fund with an allowance, two dividends and
// one settled claim.
func sampleFund(t *testing.T, opts ...fund.Option) *fund.Fund {
	t.Helper()
	d := &market.MockDispatcher{}
	var now uint64
	base := []fund.Option{
		gatewayFor(d),
		fund.WithDispatcher(d),
		fund.WithClock(func() uint64 { now += 10; return now }),
	}
	f, err := fund.New(fund.Params{
		Self:              fundAddr,
		Manager:           manager,
		TotalShares:       uint256.NewInt(1_000),
		LockManagerShares: true,
	}, append(base, opts...)...)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Fund(ctx, manager, uint256.NewInt(400)))
	require.NoError(t, f.Fund(ctx, alice, uint256.NewInt(600)))
	require.NoError(t, f.Approve(ctx, alice, bob, uint256.NewInt(50)))
	require.NoError(t, f.IssueDividend(ctx, manager, uint256.NewInt(100)))
	_, err = f.Claim(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, f.IssueDividend(ctx, manager, uint256.NewInt(30)))
	return f
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Save(nil), ErrNilState)

	f := sampleFund(t)
	snap := f.Snapshot()
	require.NoError(t, s.Save(snap))

	// Later mutations of the saved value do not leak into the store.
	snap.Balances[bob] = *uint256.NewInt(9)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, f.Snapshot(), got)
}

func TestBoltStore_NotFound(t *testing.T) {
	s := tempBoltStore(t)
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Save(nil), ErrNilState)
}

func TestBoltStore_RoundTrip(t *testing.T) {
	s := tempBoltStore(t)
	f := sampleFund(t)
	want := f.Snapshot()

	require.NoError(t, s.Save(want))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	restored, err := fund.Restore(got, gatewayFor(&market.MockDispatcher{}))
	require.NoError(t, err)
	assert.Equal(t, f.CalcDividend(alice), restored.CalcDividend(alice))
	assert.Equal(t, "52", restored.CalcDividend(manager).Dec())
	assert.True(t, restored.ManagerIsLocked())
}

func TestBoltStore_SaveReplaces(t *testing.T) {
	s := tempBoltStore(t)
	f := sampleFund(t)
	require.NoError(t, s.Save(f.Snapshot()))

	smaller := f.Snapshot()
	smaller.Dividends = smaller.Dividends[:1]
	delete(smaller.Allowances, fund.AllowanceKey{Owner: alice, Spender: bob})
	require.NoError(t, s.Save(smaller))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, got.Dividends, 1)
	assert.Empty(t, got.Allowances)
}

func TestBoltStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "fund.db")

	s1, err := OpenBoltStore(dbPath)
	require.NoError(t, err)
	f := sampleFund(t, fund.WithStore(s1))
	require.NoError(t, s1.Close())

	s2, err := OpenBoltStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load()
	require.NoError(t, err)
	assert.Equal(t, f.Snapshot(), got)
}

func TestBoltStore_CorruptDividend(t *testing.T) {
	s := tempBoltStore(t)
	require.NoError(t, s.Save(sampleFund(t).Snapshot()))

	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDividends).Put(indexKey(0), []byte{1, 2, 3})
	}))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
}
