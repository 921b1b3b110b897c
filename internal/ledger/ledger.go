package ledger

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

// Ledger tracks a fixed supply of indivisible units across accounts.
//
// A Ledger performs no locking: the caller must sequence invocations so that
// each one runs to completion before the next begins.
type Ledger struct {
	store interfaces.LedgerStore
	meta  models.Metadata
}

// Option sets optional display metadata at construction.
type Option func(*models.Metadata)

// WithSymbol sets the ticker symbol.
func WithSymbol(symbol string) Option {
	return func(m *models.Metadata) { m.Symbol = symbol }
}

// WithDecimals sets how many decimal places clients show.
func WithDecimals(decimals uint8) Option {
	return func(m *models.Metadata) { m.Decimals = decimals }
}

// New constructs a ledger in an empty store. The creator becomes the owner and
// is credited the whole supply. The returned Transfer is the mint notification
// for that initial credit.
func New(ctx context.Context, store interfaces.LedgerStore, creator models.AccountID, name string, supply uint256.Int, opts ...Option) (*Ledger, models.Transfer, error) {
	_, exists, err := store.LoadMetadata(ctx)
	if err != nil {
		return nil, models.Transfer{}, errors.Wrap(err, "load metadata")
	}
	if exists {
		return nil, models.Transfer{}, ErrAlreadyInitialized
	}

	meta := models.Metadata{
		Name:        name,
		TotalSupply: supply,
		Owner:       creator,
	}
	for _, opt := range opts {
		opt(&meta)
	}

	changes := models.ChangeSet{
		Metadata: &meta,
		Balances: []models.BalanceEntry{{Account: creator, Balance: supply}},
	}
	if err := store.Commit(ctx, changes); err != nil {
		if errors.Is(err, interfaces.ErrMetadataExists) {
			return nil, models.Transfer{}, ErrAlreadyInitialized
		}
		return nil, models.Transfer{}, errors.Wrap(err, "commit construction")
	}

	to := creator
	return &Ledger{store: store, meta: meta}, models.Transfer{To: &to, Value: supply}, nil
}

// Open attaches to a ledger constructed earlier in the same store.
func Open(ctx context.Context, store interfaces.LedgerStore) (*Ledger, error) {
	meta, exists, err := store.LoadMetadata(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load metadata")
	}
	if !exists {
		return nil, ErrNotInitialized
	}
	return &Ledger{store: store, meta: meta}, nil
}

// Name returns the token name fixed at construction.
func (l *Ledger) Name() string { return l.meta.Name }

// Symbol returns the ticker symbol, empty if none was set.
func (l *Ledger) Symbol() string { return l.meta.Symbol }

// Decimals is display metadata only; balances are whole units.
func (l *Ledger) Decimals() uint8 { return l.meta.Decimals }

// TotalSupply returns the supply minted at construction.
func (l *Ledger) TotalSupply() uint256.Int { return l.meta.TotalSupply }

// Owner returns the account that constructed the ledger.
func (l *Ledger) Owner() models.AccountID { return l.meta.Owner }

// Metadata returns a copy of the stored token metadata.
func (l *Ledger) Metadata() models.Metadata { return l.meta }

// BalanceOf returns the balance of account, zero if it was never credited.
func (l *Ledger) BalanceOf(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	balance, err := l.store.GetBalance(ctx, account)
	if err != nil {
		return uint256.Int{}, errors.Wrapf(err, "get balance of %s", account)
	}
	return balance, nil
}

// Allowance returns what spender may still move out of owner's balance.
func (l *Ledger) Allowance(ctx context.Context, owner, spender models.AccountID) (uint256.Int, error) {
	value, err := l.store.GetAllowance(ctx, models.AllowanceKey{Owner: owner, Spender: spender})
	if err != nil {
		return uint256.Int{}, errors.Wrapf(err, "get allowance of %s for %s", owner, spender)
	}
	return value, nil
}

// Transfer moves value from caller to to. On ErrInsufficientBalance nothing is
// written. Transferring to oneself is allowed and leaves the balance as is.
func (l *Ledger) Transfer(ctx context.Context, caller, to models.AccountID, value uint256.Int) (models.Transfer, error) {
	s := newStage(ctx, l.store)
	if err := s.move(caller, to, value); err != nil {
		return models.Transfer{}, err
	}

	if err := l.store.Commit(ctx, s.changeSet()); err != nil {
		return models.Transfer{}, errors.Wrap(err, "commit transfer")
	}
	return newTransfer(caller, to, value), nil
}

// Approve sets the amount spender may move out of caller's balance. A second
// approval replaces the first one; it does not add to it.
func (l *Ledger) Approve(ctx context.Context, caller, spender models.AccountID, value uint256.Int) (models.Approval, error) {
	key := models.AllowanceKey{Owner: caller, Spender: spender}
	changes := models.ChangeSet{
		Allowances: []models.AllowanceEntry{{AllowanceKey: key, Value: value}},
	}
	if err := l.store.Commit(ctx, changes); err != nil {
		return models.Approval{}, errors.Wrap(err, "commit approval")
	}
	return models.Approval{Owner: caller, Spender: spender, Value: value}, nil
}

// TransferFrom moves value from from to to on behalf of from, spending the
// allowance from granted to caller. The balance is checked before the allowance.
func (l *Ledger) TransferFrom(ctx context.Context, caller, from, to models.AccountID, value uint256.Int) (models.Transfer, error) {
	s := newStage(ctx, l.store)

	if err := s.requireBalance(from, value); err != nil {
		return models.Transfer{}, err
	}

	key := models.AllowanceKey{Owner: from, Spender: caller}
	allowance, err := l.store.GetAllowance(ctx, key)
	if err != nil {
		return models.Transfer{}, errors.Wrapf(err, "get allowance of %s for %s", from, caller)
	}
	if allowance.Lt(&value) {
		return models.Transfer{}, errors.Wrapf(ErrInsufficientAllowance,
			"%s may spend %s of %s, requested %s", caller, allowance.Dec(), from, value.Dec())
	}

	if err := s.move(from, to, value); err != nil {
		return models.Transfer{}, err
	}
	var remaining uint256.Int
	if _, underflow := remaining.SubOverflow(&allowance, &value); underflow {
		panic(errors.Wrapf(ErrArithmetic, "allowance of %s for %s", from, caller))
	}
	s.setAllowance(key, remaining)

	if err := l.store.Commit(ctx, s.changeSet()); err != nil {
		return models.Transfer{}, errors.Wrap(err, "commit delegated transfer")
	}
	return newTransfer(from, to, value), nil
}

// AuditReport compares the sum of all stored balances with the total supply.
type AuditReport struct {
	TotalSupply uint256.Int
	Circulating uint256.Int
	Holders     int // entries with a non-zero balance
	Balanced    bool
}

// Audit checks the conservation invariant against the store.
func (l *Ledger) Audit(ctx context.Context) (AuditReport, error) {
	entries, err := l.store.Balances(ctx)
	if err != nil {
		return AuditReport{}, errors.Wrap(err, "list balances")
	}

	report := AuditReport{TotalSupply: l.meta.TotalSupply}
	overflow := false
	for _, e := range entries {
		if e.Balance.IsZero() {
			continue
		}
		report.Holders++
		if _, o := report.Circulating.AddOverflow(&report.Circulating, &e.Balance); o {
			overflow = true
		}
	}
	report.Balanced = !overflow && report.Circulating.Eq(&report.TotalSupply)
	return report, nil
}

func newTransfer(from, to models.AccountID, value uint256.Int) models.Transfer {
	return models.Transfer{From: &from, To: &to, Value: value}
}
