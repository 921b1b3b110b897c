package models

import "github.com/holiman/uint256"

// Transfer is the notification produced by a successful movement of units.
// From is nil for the initial credit made at construction.
type Transfer struct {
	From  *AccountID
	To    *AccountID
	Value uint256.Int
}

// Approval is the notification produced when an owner sets a spender's allowance.
type Approval struct {
	Owner   AccountID
	Spender AccountID
	Value   uint256.Int
}
