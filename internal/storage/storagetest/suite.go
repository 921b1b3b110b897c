// Package storagetest holds behaviour every interfaces.LedgerStore must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) interfaces.LedgerStore

var (
	alice = models.AccountID{0xa1}
	bob   = models.AccountID{0xb0}
)

func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyStoreReadsZero", func(t *testing.T) { testEmptyStoreReadsZero(t, newStore) })
	t.Run("CommitIsVisible", func(t *testing.T) { testCommitIsVisible(t, newStore) })
	t.Run("AllowancesAreDirectional", func(t *testing.T) { testAllowancesAreDirectional(t, newStore) })
	t.Run("LaterCommitOverwrites", func(t *testing.T) { testLaterCommitOverwrites(t, newStore) })
	t.Run("ZeroBalancesStayListed", func(t *testing.T) { testZeroBalancesStayListed(t, newStore) })
	t.Run("CanceledCommitWritesNothing", func(t *testing.T) { testCanceledCommitWritesNothing(t, newStore) })
}

func open(t *testing.T, newStore Factory) interfaces.LedgerStore {
	store := newStore(t)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func testEmptyStoreReadsZero(t *testing.T, newStore Factory) {
	ctx := context.Background()
	store := open(t, newStore)

	_, found, err := store.LoadMetadata(ctx)
	require.NoError(t, err)
	require.False(t, found)

	balance, err := store.GetBalance(ctx, alice)
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	allowance, err := store.GetAllowance(ctx, models.AllowanceKey{Owner: alice, Spender: bob})
	require.NoError(t, err)
	require.True(t, allowance.IsZero())

	entries, err := store.Balances(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func testCommitIsVisible(t *testing.T, newStore Factory) {
	ctx := context.Background()
	store := open(t, newStore)

	meta := models.Metadata{Name: "Hivve", Symbol: "HIV", Decimals: 2, TotalSupply: *uint256.NewInt(1000), Owner: alice}
	require.NoError(t, store.Commit(ctx, models.ChangeSet{
		Metadata: &meta,
		Balances: []models.BalanceEntry{
			{Account: alice, Balance: *uint256.NewInt(900)},
			{Account: bob, Balance: *uint256.NewInt(100)},
		},
		Allowances: []models.AllowanceEntry{
			{AllowanceKey: models.AllowanceKey{Owner: alice, Spender: bob}, Value: *uint256.NewInt(50)},
		},
	}))

	got, found, err := store.LoadMetadata(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, meta, got)

	requireBalance(t, store, alice, 900)
	requireBalance(t, store, bob, 100)

	allowance, err := store.GetAllowance(ctx, models.AllowanceKey{Owner: alice, Spender: bob})
	require.NoError(t, err)
	require.Equal(t, uint64(50), allowance.Uint64())

	entries, err := store.Balances(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []models.BalanceEntry{
		{Account: alice, Balance: *uint256.NewInt(900)},
		{Account: bob, Balance: *uint256.NewInt(100)},
	}, entries)
}

func testAllowancesAreDirectional(t *testing.T, newStore Factory) {
	ctx := context.Background()
	store := open(t, newStore)

	require.NoError(t, store.Commit(ctx, models.ChangeSet{
		Allowances: []models.AllowanceEntry{
			{AllowanceKey: models.AllowanceKey{Owner: alice, Spender: bob}, Value: *uint256.NewInt(7)},
		},
	}))

	reverse, err := store.GetAllowance(ctx, models.AllowanceKey{Owner: bob, Spender: alice})
	require.NoError(t, err)
	require.True(t, reverse.IsZero())
}

func testLaterCommitOverwrites(t *testing.T, newStore Factory) {
	ctx := context.Background()
	store := open(t, newStore)
	key := models.AllowanceKey{Owner: alice, Spender: bob}

	for _, v := range []uint64{50, 10} {
		require.NoError(t, store.Commit(ctx, models.ChangeSet{
			Balances:   []models.BalanceEntry{{Account: alice, Balance: *uint256.NewInt(v)}},
			Allowances: []models.AllowanceEntry{{AllowanceKey: key, Value: *uint256.NewInt(v)}},
		}))
	}

	requireBalance(t, store, alice, 10)
	allowance, err := store.GetAllowance(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uint64(10), allowance.Uint64())
}

func testZeroBalancesStayListed(t *testing.T, newStore Factory) {
	ctx := context.Background()
	store := open(t, newStore)

	require.NoError(t, store.Commit(ctx, models.ChangeSet{
		Balances: []models.BalanceEntry{{Account: bob, Balance: uint256.Int{}}},
	}))

	requireBalance(t, store, bob, 0)
	entries, err := store.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, bob, entries[0].Account)
}

func testCanceledCommitWritesNothing(t *testing.T, newStore Factory) {
	store := open(t, newStore)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Commit(ctx, models.ChangeSet{
		Balances: []models.BalanceEntry{{Account: alice, Balance: *uint256.NewInt(1)}},
	})
	require.Error(t, err)

	requireBalance(t, store, alice, 0)
}

func requireBalance(t *testing.T, store interfaces.LedgerStore, account models.AccountID, want uint64) {
	t.Helper()
	balance, err := store.GetBalance(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, want, balance.Uint64(), "balance of %s", account)
}
