package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/sheikh-saqib/token-ledger/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestBoltLedgerStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) interfaces.LedgerStore {
		store, err := NewBoltLedgerStore(filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		return store
	})
}

func TestBoltLedgerStore_CanKeepDataPersistent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	owner := models.AccountID{1}
	meta := models.Metadata{Name: "Hivve", TotalSupply: *uint256.NewInt(10), Owner: owner}

	store, err := NewBoltLedgerStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, models.ChangeSet{
		Metadata: &meta,
		Balances: []models.BalanceEntry{{Account: owner, Balance: meta.TotalSupply}},
	}))
	require.NoError(t, store.Close())

	reopened, err := NewBoltLedgerStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.LoadMetadata(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, meta, got)

	balance, err := reopened.GetBalance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance.Uint64())
}
