package interfaces

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

// ErrMetadataExists is returned by Commit when the change set carries metadata
// and another writer stored it first.
var ErrMetadataExists = errors.New("token metadata already stored")

// LedgerStore persists a single ledger. Missing balances and allowances read
// as zero; implementations never return a not-found error for them.
type LedgerStore interface {
	// LoadMetadata returns the stored metadata and false if the ledger has not
	// been constructed yet.
	LoadMetadata(ctx context.Context) (models.Metadata, bool, error)
	GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error)
	GetAllowance(ctx context.Context, key models.AllowanceKey) (uint256.Int, error)
	// Balances lists every stored balance entry, zero entries included.
	Balances(ctx context.Context) ([]models.BalanceEntry, error)
	// Commit applies all writes of the change set atomically.
	Commit(ctx context.Context, changes models.ChangeSet) error
	Close() error
}
