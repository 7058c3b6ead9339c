package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresLedger implements Ledger on PostgreSQL. Row locks on the
// accounts table serialize concurrent operations per account; the
// balance update and journal insert commit in one transaction.
type PostgresLedger struct {
	db              *sql.DB
	startingBalance int64
	logger          *zap.Logger
}

// PostgresConfig holds PostgreSQL ledger configuration.
type PostgresConfig struct {
	Host                 string
	Port                 string
	User                 string
	Password             string
	Database             string
	SSLMode              string
	StartingBalanceCents int64
	Logger               *zap.Logger
}

// NewPostgresLedger opens a connection and verifies it.
func NewPostgresLedger(cfg *PostgresConfig) (*PostgresLedger, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-ledger-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresLedger{
		db:              db,
		startingBalance: cfg.StartingBalanceCents,
		logger:          cfg.Logger,
	}, nil
}

// NewPostgresLedgerFromDB wraps an existing connection (used in tests).
func NewPostgresLedgerFromDB(db *sql.DB, startingBalanceCents int64, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{db: db, startingBalance: startingBalanceCents, logger: logger}
}

// ensureAccount locks the account row for the rest of the transaction,
// inserting it first if this is the first reference.
func (p *PostgresLedger) ensureAccount(ctx context.Context, tx *sql.Tx, accountID int64) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO accounts (id, balance_cents) VALUES ($1, $2)`, accountID, p.startingBalance)
		if err != nil {
			return 0, fmt.Errorf("create account: %w", err)
		}
		if p.startingBalance > 0 {
			err = p.insertEntry(ctx, tx, accountID, p.startingBalance, p.startingBalance, ReasonInitial, "")
			if err != nil {
				return 0, err
			}
		}
		return p.startingBalance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select account: %w", err)
	}
	return balance, nil
}

func (p *PostgresLedger) insertEntry(ctx context.Context, tx *sql.Tx, accountID, delta, after int64, reason Reason, ref string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (account_id, delta_cents, balance_after_cents, reason, related_ref)
		VALUES ($1, $2, $3, $4, $5)`,
		accountID, delta, after, string(reason), ref)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Credit adds funds to an account.
func (p *PostgresLedger) Credit(ctx context.Context, accountID, amountCents int64, reason Reason, ref string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance int64
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		balance, err := p.ensureAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		newBalance = balance + amountCents
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = $1 WHERE id = $2`, newBalance, accountID)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		return p.insertEntry(ctx, tx, accountID, amountCents, newBalance, reason, ref)
	})
	if err != nil {
		return 0, err
	}

	CreditsTotal.Inc()
	p.logger.Debug("ledger-credit",
		zap.Int64("account-id", accountID),
		zap.Int64("amount-cents", amountCents),
		zap.Int64("balance-cents", newBalance),
		zap.String("reason", string(reason)))

	return newBalance, nil
}

// Debit removes funds from an account, rejecting overdrafts.
func (p *PostgresLedger) Debit(ctx context.Context, accountID, amountCents int64, reason Reason, ref string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance int64
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		balance, err := p.ensureAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		if balance < amountCents {
			newBalance = balance
			return ErrInsufficientFunds
		}

		newBalance = balance - amountCents
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = $1 WHERE id = $2`, newBalance, accountID)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		return p.insertEntry(ctx, tx, accountID, -amountCents, newBalance, reason, ref)
	})
	if err != nil {
		if err == ErrInsufficientFunds {
			DebitsRejectedTotal.Inc()
			return newBalance, err
		}
		return 0, err
	}

	DebitsTotal.Inc()
	p.logger.Debug("ledger-debit",
		zap.Int64("account-id", accountID),
		zap.Int64("amount-cents", amountCents),
		zap.Int64("balance-cents", newBalance),
		zap.String("reason", string(reason)))

	return newBalance, nil
}

// Balance returns the current balance, creating the account if absent.
func (p *PostgresLedger) Balance(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		balance, err = p.ensureAccount(ctx, tx, accountID)
		return err
	})
	return balance, err
}

// Snapshot returns every account balance.
func (p *PostgresLedger) Snapshot(ctx context.Context) ([]AccountBalance, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, balance_cents FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	defer rows.Close()

	var out []AccountBalance
	for rows.Next() {
		var ab AccountBalance
		if err := rows.Scan(&ab.AccountID, &ab.BalanceCents); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, ab)
	}
	return out, rows.Err()
}

// History returns the account journal, newest first.
func (p *PostgresLedger) History(ctx context.Context, accountID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, delta_cents, balance_after_cents, reason, related_ref, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var reason string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.DeltaCents, &e.BalanceAfterCents, &reason, &e.RelatedRef, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Reason = Reason(reason)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (p *PostgresLedger) Close() error {
	p.logger.Info("closing-postgres-ledger")
	return p.db.Close()
}

func (p *PostgresLedger) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
