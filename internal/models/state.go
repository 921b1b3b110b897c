package models

import "github.com/holiman/uint256"

// Metadata is the immutable part of a ledger, written once at construction.
type Metadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply uint256.Int
	Owner       AccountID // the constructing caller
}

// BalanceEntry is a single stored balance.
type BalanceEntry struct {
	Account AccountID
	Balance uint256.Int
}

// AllowanceKey addresses the remaining amount Spender may move out of Owner's balance.
type AllowanceKey struct {
	Owner   AccountID
	Spender AccountID
}

// AllowanceEntry is a single stored allowance.
type AllowanceEntry struct {
	AllowanceKey
	Value uint256.Int
}

// ChangeSet holds every write produced by one ledger operation. Stores apply
// it as a single atomic unit.
type ChangeSet struct {
	Metadata   *Metadata // set only at construction
	Balances   []BalanceEntry
	Allowances []AllowanceEntry
}

// Empty reports whether the change set carries no writes.
func (c ChangeSet) Empty() bool {
	return c.Metadata == nil && len(c.Balances) == 0 && len(c.Allowances) == 0
}
