package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

// CachedLedgerStore keeps recently read balances and allowances in an LRU in
// front of another store. Writes go to the inner store first and refresh the
// cache only after they succeeded.
type CachedLedgerStore struct {
	inner      interfaces.LedgerStore
	balances   *lru.Cache
	allowances *lru.Cache
}

func NewCachedLedgerStore(inner interfaces.LedgerStore, size int) (*CachedLedgerStore, error) {
	balances, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create balance cache")
	}
	allowances, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create allowance cache")
	}
	return &CachedLedgerStore{inner: inner, balances: balances, allowances: allowances}, nil
}

func (c *CachedLedgerStore) LoadMetadata(ctx context.Context) (models.Metadata, bool, error) {
	return c.inner.LoadMetadata(ctx)
}

func (c *CachedLedgerStore) GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	if v, ok := c.balances.Get(account); ok {
		return v.(uint256.Int), nil
	}
	v, err := c.inner.GetBalance(ctx, account)
	if err != nil {
		return uint256.Int{}, err
	}
	c.balances.Add(account, v)
	return v, nil
}

func (c *CachedLedgerStore) GetAllowance(ctx context.Context, key models.AllowanceKey) (uint256.Int, error) {
	if v, ok := c.allowances.Get(key); ok {
		return v.(uint256.Int), nil
	}
	v, err := c.inner.GetAllowance(ctx, key)
	if err != nil {
		return uint256.Int{}, err
	}
	c.allowances.Add(key, v)
	return v, nil
}

func (c *CachedLedgerStore) Balances(ctx context.Context) ([]models.BalanceEntry, error) {
	return c.inner.Balances(ctx)
}

func (c *CachedLedgerStore) Commit(ctx context.Context, changes models.ChangeSet) error {
	if err := c.inner.Commit(ctx, changes); err != nil {
		// drop touched keys so the next read goes to the inner store
		for _, e := range changes.Balances {
			c.balances.Remove(e.Account)
		}
		for _, e := range changes.Allowances {
			c.allowances.Remove(e.AllowanceKey)
		}
		return err
	}

	for _, e := range changes.Balances {
		c.balances.Add(e.Account, e.Balance)
	}
	for _, e := range changes.Allowances {
		c.allowances.Add(e.AllowanceKey, e.Value)
	}
	return nil
}

func (c *CachedLedgerStore) Close() error {
	c.balances.Purge()
	c.allowances.Purge()
	return c.inner.Close()
}

var _ interfaces.LedgerStore = (*CachedLedgerStore)(nil)
