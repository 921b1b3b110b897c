package postgres

import (
	"context"

	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS token_metadata (
		id           SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		name         TEXT NOT NULL,
		symbol       TEXT NOT NULL,
		decimals     SMALLINT NOT NULL,
		total_supply NUMERIC(78, 0) NOT NULL,
		owner        BYTEA NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		account BYTEA PRIMARY KEY,
		balance NUMERIC(78, 0) NOT NULL CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS allowances (
		owner   BYTEA NOT NULL,
		spender BYTEA NOT NULL,
		value   NUMERIC(78, 0) NOT NULL CHECK (value >= 0),
		PRIMARY KEY (owner, spender)
	)`,
}

// EnsureSchema creates the ledger tables if they do not exist yet.
func (p *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}
	return nil
}

// truncate empties all ledger tables. Used by tests only.
func (p *PostgresLedgerStore) truncate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `TRUNCATE token_metadata, balances, allowances`)
	return err
}
