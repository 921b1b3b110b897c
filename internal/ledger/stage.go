package ledger

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

// stage collects the writes of one operation on top of the store. Reads see
// earlier staged writes, so a self-transfer debits and then credits the same
// staged value. Nothing reaches the store until changeSet is committed.
type stage struct {
	ctx        context.Context
	store      interfaces.LedgerStore
	balances   map[models.AccountID]uint256.Int
	order      []models.AccountID
	allowances []models.AllowanceEntry
}

func newStage(ctx context.Context, store interfaces.LedgerStore) *stage {
	return &stage{
		ctx:      ctx,
		store:    store,
		balances: make(map[models.AccountID]uint256.Int, 2),
	}
}

func (s *stage) balance(account models.AccountID) (uint256.Int, error) {
	if v, ok := s.balances[account]; ok {
		return v, nil
	}
	v, err := s.store.GetBalance(s.ctx, account)
	if err != nil {
		return uint256.Int{}, errors.Wrapf(err, "get balance of %s", account)
	}
	return v, nil
}

func (s *stage) setBalance(account models.AccountID, v uint256.Int) {
	if _, ok := s.balances[account]; !ok {
		s.order = append(s.order, account)
	}
	s.balances[account] = v
}

func (s *stage) setAllowance(key models.AllowanceKey, v uint256.Int) {
	s.allowances = append(s.allowances, models.AllowanceEntry{AllowanceKey: key, Value: v})
}

func (s *stage) requireBalance(account models.AccountID, value uint256.Int) error {
	balance, err := s.balance(account)
	if err != nil {
		return err
	}
	if balance.Lt(&value) {
		return insufficientBalance(account, balance, value)
	}
	return nil
}

func insufficientBalance(account models.AccountID, balance, value uint256.Int) error {
	return errors.Wrapf(ErrInsufficientBalance, "%s holds %s, requested %s", account, balance.Dec(), value.Dec())
}

// move debits from and credits to. It panics with ErrArithmetic if either
// side over- or underflows.
func (s *stage) move(from, to models.AccountID, value uint256.Int) error {
	fromBalance, err := s.balance(from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(&value) {
		return insufficientBalance(from, fromBalance, value)
	}
	var debited uint256.Int
	if _, underflow := debited.SubOverflow(&fromBalance, &value); underflow {
		panic(errors.Wrapf(ErrArithmetic, "debit %s from %s", value.Dec(), from))
	}
	s.setBalance(from, debited)

	toBalance, err := s.balance(to)
	if err != nil {
		return err
	}
	var credited uint256.Int
	if _, overflow := credited.AddOverflow(&toBalance, &value); overflow {
		panic(errors.Wrapf(ErrArithmetic, "credit %s to %s", value.Dec(), to))
	}
	s.setBalance(to, credited)
	return nil
}

func (s *stage) changeSet() models.ChangeSet {
	changes := models.ChangeSet{Allowances: s.allowances}
	for _, account := range s.order {
		changes.Balances = append(changes.Balances, models.BalanceEntry{Account: account, Balance: s.balances[account]})
	}
	return changes
}
