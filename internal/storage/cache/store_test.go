package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/sheikh-saqib/token-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/token-ledger/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestCachedLedgerStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) interfaces.LedgerStore {
		store, err := NewCachedLedgerStore(memory.NewMemoryLedgerStore(), 16)
		require.NoError(t, err)
		return store
	})
}

func TestNewCachedLedgerStore_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewCachedLedgerStore(memory.NewMemoryLedgerStore(), 0)
	require.Error(t, err)
}

// countingStore counts balance reads reaching the inner store and can be made
// to fail commits.
type countingStore struct {
	*memory.MemoryLedgerStore
	balanceReads int
	commitErr    error
}

func (s *countingStore) GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	s.balanceReads++
	return s.MemoryLedgerStore.GetBalance(ctx, account)
}

func (s *countingStore) Commit(ctx context.Context, changes models.ChangeSet) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	return s.MemoryLedgerStore.Commit(ctx, changes)
}

func TestCachedLedgerStore_ServesRepeatedReadsFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryLedgerStore: memory.NewMemoryLedgerStore()}
	store, err := NewCachedLedgerStore(inner, 4)
	require.NoError(t, err)

	account := models.AccountID{1}
	for i := 0; i < 3; i++ {
		_, err := store.GetBalance(ctx, account)
		require.NoError(t, err)
	}
	require.Equal(t, 1, inner.balanceReads)
}

func TestCachedLedgerStore_CommitRefreshesCachedValues(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryLedgerStore: memory.NewMemoryLedgerStore()}
	store, err := NewCachedLedgerStore(inner, 4)
	require.NoError(t, err)

	account := models.AccountID{1}
	_, err = store.GetBalance(ctx, account)
	require.NoError(t, err)

	require.NoError(t, store.Commit(ctx, models.ChangeSet{
		Balances: []models.BalanceEntry{{Account: account, Balance: *uint256.NewInt(5)}},
	}))

	balance, err := store.GetBalance(ctx, account)
	require.NoError(t, err)
	require.Equal(t, uint64(5), balance.Uint64())
	require.Equal(t, 1, inner.balanceReads)
}

func TestCachedLedgerStore_FailedCommitInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryLedgerStore: memory.NewMemoryLedgerStore()}
	store, err := NewCachedLedgerStore(inner, 4)
	require.NoError(t, err)

	account := models.AccountID{1}
	_, err = store.GetBalance(ctx, account)
	require.NoError(t, err)

	inner.commitErr = errors.New("disk full")
	err = store.Commit(ctx, models.ChangeSet{
		Balances: []models.BalanceEntry{{Account: account, Balance: *uint256.NewInt(5)}},
	})
	require.ErrorIs(t, err, inner.commitErr)

	balance, err := store.GetBalance(ctx, account)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
	require.Equal(t, 2, inner.balanceReads)
}
