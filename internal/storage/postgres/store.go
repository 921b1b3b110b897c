package postgres

import (
	"context"
	"database/sql"

	"github.com/holiman/uint256"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

// ErrMetadataExists is returned when a second construction races the first one.
var ErrMetadataExists = interfaces.ErrMetadataExists

const uniqueViolation = "23505"

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects to dsn and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*PostgresLedgerStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	store := NewPostgresLedgerStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (p *PostgresLedgerStore) LoadMetadata(ctx context.Context) (models.Metadata, bool, error) {
	const query = `SELECT name, symbol, decimals, total_supply, owner FROM token_metadata WHERE id = 1`

	var (
		meta   models.Metadata
		supply string
		owner  []byte
	)
	err := p.db.QueryRowContext(ctx, query).Scan(&meta.Name, &meta.Symbol, &meta.Decimals, &supply, &owner)
	if err == sql.ErrNoRows {
		return models.Metadata{}, false, nil
	}
	if err != nil {
		return models.Metadata{}, false, errors.Wrap(err, "select metadata")
	}

	if meta.TotalSupply, err = parseAmount(supply); err != nil {
		return models.Metadata{}, false, err
	}
	if meta.Owner, err = models.AccountIDFromBytes(owner); err != nil {
		return models.Metadata{}, false, err
	}
	return meta, true, nil
}

func (p *PostgresLedgerStore) GetBalance(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	const query = `SELECT balance FROM balances WHERE account = $1`
	return p.amount(ctx, query, account.Bytes())
}

func (p *PostgresLedgerStore) GetAllowance(ctx context.Context, key models.AllowanceKey) (uint256.Int, error) {
	const query = `SELECT value FROM allowances WHERE owner = $1 AND spender = $2`
	return p.amount(ctx, query, key.Owner.Bytes(), key.Spender.Bytes())
}

func (p *PostgresLedgerStore) amount(ctx context.Context, query string, args ...any) (uint256.Int, error) {
	var value string
	err := p.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if err == sql.ErrNoRows {
		return uint256.Int{}, nil
	}
	if err != nil {
		return uint256.Int{}, err
	}
	return parseAmount(value)
}

func (p *PostgresLedgerStore) Balances(ctx context.Context) ([]models.BalanceEntry, error) {
	const query = `SELECT account, balance FROM balances ORDER BY account`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.BalanceEntry
	for rows.Next() {
		var (
			account []byte
			balance string
		)
		if err := rows.Scan(&account, &balance); err != nil {
			return nil, err
		}

		var entry models.BalanceEntry
		if entry.Account, err = models.AccountIDFromBytes(account); err != nil {
			return nil, err
		}
		if entry.Balance, err = parseAmount(balance); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *PostgresLedgerStore) Commit(ctx context.Context, changes models.ChangeSet) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if changes.Metadata != nil {
		if err = p.saveMetadata(ctx, dbTx, *changes.Metadata); err != nil {
			return err
		}
	}
	for _, e := range changes.Balances {
		if err = p.saveBalance(ctx, dbTx, e); err != nil {
			return err
		}
	}
	for _, e := range changes.Allowances {
		if err = p.saveAllowance(ctx, dbTx, e); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

func (p *PostgresLedgerStore) saveMetadata(ctx context.Context, dbTx *sql.Tx, meta models.Metadata) error {
	const query = `INSERT INTO token_metadata (name, symbol, decimals, total_supply, owner)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := dbTx.ExecContext(ctx, query, meta.Name, meta.Symbol, int(meta.Decimals), meta.TotalSupply.Dec(), meta.Owner.Bytes())

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrMetadataExists
	}
	return errors.Wrap(err, "insert metadata")
}

func (p *PostgresLedgerStore) saveBalance(ctx context.Context, dbTx *sql.Tx, e models.BalanceEntry) error {
	const query = `INSERT INTO balances (account, balance) VALUES ($1, $2)
	ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance`

	_, err := dbTx.ExecContext(ctx, query, e.Account.Bytes(), e.Balance.Dec())
	return errors.Wrapf(err, "upsert balance of %s", e.Account)
}

func (p *PostgresLedgerStore) saveAllowance(ctx context.Context, dbTx *sql.Tx, e models.AllowanceEntry) error {
	const query = `INSERT INTO allowances (owner, spender, value) VALUES ($1, $2, $3)
	ON CONFLICT (owner, spender) DO UPDATE SET value = EXCLUDED.value`

	_, err := dbTx.ExecContext(ctx, query, e.Owner.Bytes(), e.Spender.Bytes(), e.Value.Dec())
	return errors.Wrapf(err, "upsert allowance of %s for %s", e.Owner, e.Spender)
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

func parseAmount(s string) (uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, errors.Wrapf(err, "parse stored amount %q", s)
	}
	return *v, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
