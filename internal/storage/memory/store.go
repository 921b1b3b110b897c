package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// State lives as long as the process does.
type MemoryLedgerStore struct {
	mu         sync.RWMutex
	meta       *models.Metadata
	balances   map[models.AccountID]uint256.Int
	allowances map[models.AllowanceKey]uint256.Int
}

// NewMemoryLedgerStore creates an empty store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		balances:   make(map[models.AccountID]uint256.Int),
		allowances: make(map[models.AllowanceKey]uint256.Int),
	}
}

func (m *MemoryLedgerStore) LoadMetadata(ctx context.Context) (models.Metadata, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.meta == nil {
		return models.Metadata{}, false, nil
	}
	return *m.meta, true, nil
}

func (m *MemoryLedgerStore) GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.balances[account], nil
}

func (m *MemoryLedgerStore) GetAllowance(ctx context.Context, key models.AllowanceKey) (uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.allowances[key], nil
}

// Balances returns a copy of all entries ordered by account id.
func (m *MemoryLedgerStore) Balances(ctx context.Context) ([]models.BalanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]models.BalanceEntry, 0, len(m.balances))
	for account, balance := range m.balances {
		entries = append(entries, models.BalanceEntry{Account: account, Balance: balance})
	}
	sort.Slice(entries, func(i, j int) bool {
		return string(entries[i].Account[:]) < string(entries[j].Account[:])
	})
	return entries, nil
}

// Commit applies the change set under the write lock, so readers never see a
// half-applied operation.
func (m *MemoryLedgerStore) Commit(ctx context.Context, changes models.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if changes.Metadata != nil {
		meta := *changes.Metadata
		m.meta = &meta
	}
	for _, e := range changes.Balances {
		m.balances[e.Account] = e.Balance
	}
	for _, e := range changes.Allowances {
		m.allowances[e.AllowanceKey] = e.Value
	}
	return nil
}

func (m *MemoryLedgerStore) Close() error {
	return nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
