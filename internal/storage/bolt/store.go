package bolt

import (
	"bytes"
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/sheikh-saqib/token-ledger/internal/storage/kvcodec"
	bolt "go.etcd.io/bbolt"
)

var ledgerBucket = []byte("ledger")

// BoltLedgerStore keeps the ledger in a single bbolt bucket using the kvcodec
// key layout. Every Commit is one bolt read-write transaction.
type BoltLedgerStore struct {
	db *bolt.DB
}

// NewBoltLedgerStore opens (or creates) the database file at path.
func NewBoltLedgerStore(path string) (*BoltLedgerStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt db %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(ledgerBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create ledger bucket")
	}

	return &BoltLedgerStore{db: db}, nil
}

func (s *BoltLedgerStore) LoadMetadata(ctx context.Context) (models.Metadata, bool, error) {
	var (
		meta  models.Metadata
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ledgerBucket).Get(kvcodec.MetadataKey())
		if data == nil {
			return nil
		}
		found = true
		var err error
		meta, err = kvcodec.DecodeMetadata(data)
		return err
	})
	return meta, found, err
}

func (s *BoltLedgerStore) get(key []byte) (uint256.Int, error) {
	var v uint256.Int
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		v, err = kvcodec.DecodeAmount(tx.Bucket(ledgerBucket).Get(key))
		return err
	})
	return v, err
}

func (s *BoltLedgerStore) GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	return s.get(kvcodec.BalanceKey(account))
}

func (s *BoltLedgerStore) GetAllowance(ctx context.Context, key models.AllowanceKey) (uint256.Int, error) {
	return s.get(kvcodec.AllowanceKey(key))
}

func (s *BoltLedgerStore) Balances(ctx context.Context) ([]models.BalanceEntry, error) {
	var entries []models.BalanceEntry
	prefix := kvcodec.BalancePrefix()

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ledgerBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			account, err := kvcodec.AccountFromBalanceKey(k)
			if err != nil {
				return err
			}
			balance, err := kvcodec.DecodeAmount(v)
			if err != nil {
				return err
			}
			entries = append(entries, models.BalanceEntry{Account: account, Balance: balance})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BoltLedgerStore) Commit(ctx context.Context, changes models.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ledgerBucket)

		if changes.Metadata != nil {
			data, err := kvcodec.EncodeMetadata(*changes.Metadata)
			if err != nil {
				return err
			}
			if err := b.Put(kvcodec.MetadataKey(), data); err != nil {
				return errors.Wrap(err, "put metadata")
			}
		}
		for _, e := range changes.Balances {
			if err := b.Put(kvcodec.BalanceKey(e.Account), kvcodec.EncodeAmount(e.Balance)); err != nil {
				return errors.Wrapf(err, "put balance of %s", e.Account)
			}
		}
		for _, e := range changes.Allowances {
			if err := b.Put(kvcodec.AllowanceKey(e.AllowanceKey), kvcodec.EncodeAmount(e.Value)); err != nil {
				return errors.Wrapf(err, "put allowance of %s for %s", e.Owner, e.Spender)
			}
		}
		return nil
	})
}

func (s *BoltLedgerStore) Close() error {
	return s.db.Close()
}

var _ interfaces.LedgerStore = (*BoltLedgerStore)(nil)
