package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/fund"
)

var (
	bucketMeta       = []byte("meta")
	bucketBalances   = []byte("balances")
	bucketAllowances = []byte("allowances")
	bucketDividends  = []byte("dividends")
	bucketWatermarks = []byte("watermarks")

	keyFund = []byte("fund")
)

// dataBuckets are rewritten on every Save.
var dataBuckets = [][]byte{bucketBalances, bucketAllowances, bucketDividends, bucketWatermarks}

// metaRecord holds the scalar part of a fund state.
type metaRecord struct {
	Self              account.Account
	Manager           account.Account
	TotalSupply       [32]byte
	LockManagerShares bool
	FundingAmount     [32]byte
	DividendWallet    account.Account
}

// BoltStore persists fund state in a bbolt database. Each Save writes the
// whole snapshot in a single transaction.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range append([][]byte{bucketMeta}, dataBuckets...) {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Save implements Store.
func (s *BoltStore) Save(state *fund.State) error {
	if state == nil {
		return ErrNilState
	}

	meta, err := encodeGob(metaRecord{
		Self:              state.Self,
		Manager:           state.Manager,
		TotalSupply:       state.TotalSupply.Bytes32(),
		LockManagerShares: state.LockManagerShares,
		FundingAmount:     state.FundingAmount.Bytes32(),
		DividendWallet:    state.DividendWallet,
	})
	if err != nil {
		return fmt.Errorf("store: encode meta: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range dataBuckets {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("store: reset bucket %q: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}

		if err := tx.Bucket(bucketMeta).Put(keyFund, meta); err != nil {
			return fmt.Errorf("store: put meta: %w", err)
		}

		b := tx.Bucket(bucketBalances)
		for a, v := range state.Balances {
			amount := v.Bytes32()
			if err := b.Put(a[:], amount[:]); err != nil {
				return fmt.Errorf("store: put balance: %w", err)
			}
		}

		b = tx.Bucket(bucketAllowances)
		for k, v := range state.Allowances {
			amount := v.Bytes32()
			if err := b.Put(allowanceKey(k), amount[:]); err != nil {
				return fmt.Errorf("store: put allowance: %w", err)
			}
		}

		b = tx.Bucket(bucketDividends)
		for i, evt := range state.Dividends {
			if err := b.Put(indexKey(uint64(i)), encodeDividend(evt)); err != nil {
				return fmt.Errorf("store: put dividend %d: %w", i, err)
			}
		}

		b = tx.Bucket(bucketWatermarks)
		for a, ts := range state.Watermarks {
			if err := b.Put(a[:], indexKey(ts)); err != nil {
				return fmt.Errorf("store: put watermark: %w", err)
			}
		}
		return nil
	})
}

// Load implements Store.
func (s *BoltStore) Load() (*fund.State, error) {
	state := fund.NewState()
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyFund)
		if data == nil {
			return ErrNotFound
		}
		var meta metaRecord
		if err := decodeGob(data, &meta); err != nil {
			return fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
		}
		state.Self = meta.Self
		state.Manager = meta.Manager
		state.TotalSupply.SetBytes32(meta.TotalSupply[:])
		state.LockManagerShares = meta.LockManagerShares
		state.FundingAmount.SetBytes32(meta.FundingAmount[:])
		state.DividendWallet = meta.DividendWallet

		err := tx.Bucket(bucketBalances).ForEach(func(k, v []byte) error {
			a, err := accountKey(k)
			if err != nil || len(v) != 32 {
				return fmt.Errorf("%w: balance entry", ErrCorrupt)
			}
			var amount uint256.Int
			amount.SetBytes32(v)
			state.Balances[a] = amount
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketAllowances).ForEach(func(k, v []byte) error {
			if len(k) != 2*account.Size || len(v) != 32 {
				return fmt.Errorf("%w: allowance entry", ErrCorrupt)
			}
			var key fund.AllowanceKey
			copy(key.Owner[:], k[:account.Size])
			copy(key.Spender[:], k[account.Size:])
			var amount uint256.Int
			amount.SetBytes32(v)
			state.Allowances[key] = amount
			return nil
		})
		if err != nil {
			return err
		}

		// Keys are big-endian indexes, so the cursor yields history order.
		err = tx.Bucket(bucketDividends).ForEach(func(_, v []byte) error {
			evt, err := decodeDividend(v)
			if err != nil {
				return err
			}
			state.Dividends = append(state.Dividends, evt)
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketWatermarks).ForEach(func(k, v []byte) error {
			a, err := accountKey(k)
			if err != nil || len(v) != 8 {
				return fmt.Errorf("%w: watermark entry", ErrCorrupt)
			}
			state.Watermarks[a] = binary.BigEndian.Uint64(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// indexKey encodes n as an 8-byte big-endian key for sorted storage.
func indexKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

func allowanceKey(k fund.AllowanceKey) []byte {
	out := make([]byte, 0, 2*account.Size)
	out = append(out, k.Owner[:]...)
	return append(out, k.Spender[:]...)
}

func accountKey(k []byte) (account.Account, error) {
	var a account.Account
	if len(k) != account.Size {
		return a, ErrCorrupt
	}
	copy(a[:], k)
	return a, nil
}

// encodeDividend lays out issued_at (8 bytes) followed by the amount (32 bytes).
func encodeDividend(evt fund.DividendEvent) []byte {
	out := make([]byte, 8, 40)
	binary.BigEndian.PutUint64(out, evt.IssuedAt)
	amount := evt.Amount.Bytes32()
	return append(out, amount[:]...)
}

func decodeDividend(v []byte) (fund.DividendEvent, error) {
	var evt fund.DividendEvent
	if len(v) != 40 {
		return evt, fmt.Errorf("%w: dividend entry has %d bytes", ErrCorrupt, len(v))
	}
	evt.IssuedAt = binary.BigEndian.Uint64(v[:8])
	evt.Amount.SetBytes32(v[8:])
	return evt, nil
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
