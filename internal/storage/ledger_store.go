package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/storage/bolt"
	"github.com/sheikh-saqib/token-ledger/internal/storage/cache"
	"github.com/sheikh-saqib/token-ledger/internal/storage/leveldb"
	"github.com/sheikh-saqib/token-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/token-ledger/internal/storage/postgres"
)

// Open returns the store selected by cfg.Driver, wrapped in a read cache
// when cfg.CacheSize is positive.
func Open(ctx context.Context, cfg config.StoreConfig) (interfaces.LedgerStore, error) {
	var (
		store interfaces.LedgerStore
		err   error
	)

	switch cfg.Driver {
	case config.DriverMemory, "":
		store = memory.NewMemoryLedgerStore()
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, cfg.PostgresDSN)
	case config.DriverBolt:
		store, err = bolt.NewBoltLedgerStore(cfg.BoltPath)
	case config.DriverLevelDB:
		store, err = leveldb.NewLevelDBLedgerStore(cfg.LevelDBPath)
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize <= 0 {
		return store, nil
	}

	cached, err := cache.NewCachedLedgerStore(store, cfg.CacheSize)
	if err != nil {
		store.Close()
		return nil, err
	}
	return cached, nil
}
