package leveldb

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/sheikh-saqib/token-ledger/internal/storage/kvcodec"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBLedgerStore keeps the ledger in goleveldb using the kvcodec key
// layout. Every Commit is written as one synced batch.
type LevelDBLedgerStore struct {
	db *leveldb.DB
}

// NewLevelDBLedgerStore opens (or creates) a database in dir.
func NewLevelDBLedgerStore(dir string) (*LevelDBLedgerStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", dir)
	}
	return &LevelDBLedgerStore{db: db}, nil
}

// NewInMemoryLevelDBLedgerStore is backed by goleveldb's memory storage.
func NewInMemoryLevelDBLedgerStore() (*LevelDBLedgerStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory leveldb")
	}
	return &LevelDBLedgerStore{db: db}, nil
}

func (s *LevelDBLedgerStore) LoadMetadata(ctx context.Context) (models.Metadata, bool, error) {
	data, err := s.db.Get(kvcodec.MetadataKey(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return models.Metadata{}, false, nil
	}
	if err != nil {
		return models.Metadata{}, false, errors.Wrap(err, "get metadata")
	}

	meta, err := kvcodec.DecodeMetadata(data)
	if err != nil {
		return models.Metadata{}, false, err
	}
	return meta, true, nil
}

func (s *LevelDBLedgerStore) get(key []byte) (uint256.Int, error) {
	data, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return uint256.Int{}, nil
	}
	if err != nil {
		return uint256.Int{}, err
	}
	return kvcodec.DecodeAmount(data)
}

func (s *LevelDBLedgerStore) GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	return s.get(kvcodec.BalanceKey(account))
}

func (s *LevelDBLedgerStore) GetAllowance(ctx context.Context, key models.AllowanceKey) (uint256.Int, error) {
	return s.get(kvcodec.AllowanceKey(key))
}

func (s *LevelDBLedgerStore) Balances(ctx context.Context) ([]models.BalanceEntry, error) {
	iter := s.db.NewIterator(util.BytesPrefix(kvcodec.BalancePrefix()), nil)
	defer iter.Release()

	var entries []models.BalanceEntry
	for iter.Next() {
		account, err := kvcodec.AccountFromBalanceKey(iter.Key())
		if err != nil {
			return nil, err
		}
		balance, err := kvcodec.DecodeAmount(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.BalanceEntry{Account: account, Balance: balance})
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *LevelDBLedgerStore) Commit(ctx context.Context, changes models.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	if changes.Metadata != nil {
		data, err := kvcodec.EncodeMetadata(*changes.Metadata)
		if err != nil {
			return err
		}
		batch.Put(kvcodec.MetadataKey(), data)
	}
	for _, e := range changes.Balances {
		batch.Put(kvcodec.BalanceKey(e.Account), kvcodec.EncodeAmount(e.Balance))
	}
	for _, e := range changes.Allowances {
		batch.Put(kvcodec.AllowanceKey(e.AllowanceKey), kvcodec.EncodeAmount(e.Value))
	}

	return errors.Wrap(s.db.Write(batch, &opt.WriteOptions{Sync: true}), "write batch")
}

func (s *LevelDBLedgerStore) Close() error {
	return s.db.Close()
}

var _ interfaces.LedgerStore = (*LevelDBLedgerStore)(nil)
