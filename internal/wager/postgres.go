package wager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore implements Store on PostgreSQL.
//
// Schema:
//
//	wagers(id, account_id, kind, subject, pick, stake_cents, odds,
//	       status, payout_cents, close_at, created_at, settled_at)
//	parlays(id, account_id, stake_cents, combined_odds, status,
//	        payout_cents, created_at, settled_at)
//	parlay_legs(id, parlay_id, subject, pick, odds, status, close_at)
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL store configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore opens a connection and verifies it.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
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

	cfg.Logger.Info("postgres-wager-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{db: db, logger: cfg.Logger}, nil
}

// NewPostgresStoreFromDB wraps an existing connection (used in tests).
func NewPostgresStoreFromDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// CreateWager persists a new pending wager.
func (p *PostgresStore) CreateWager(ctx context.Context, w *Wager) error {
	if w.StakeCents <= 0 {
		return ErrInvalidStake
	}
	if w.Odds < 1.0 {
		return ErrInvalidOdds
	}

	w.Status = StatusPending
	w.CreatedAt = time.Now()

	var closeAt interface{}
	if !w.CloseAt.IsZero() {
		closeAt = w.CloseAt
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO wagers (account_id, kind, subject, pick, stake_cents, odds, status, close_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		w.AccountID, string(w.Kind), w.Subject, w.Pick, w.StakeCents, w.Odds,
		string(w.Status), closeAt, w.CreatedAt,
	).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("insert wager: %w", err)
	}

	WagersCreatedTotal.Inc()
	return nil
}

const wagerColumns = `id, account_id, kind, subject, pick, stake_cents, odds, status, payout_cents, close_at, created_at, settled_at`

func scanWager(row interface{ Scan(...interface{}) error }) (*Wager, error) {
	var w Wager
	var kind, status string
	var closeAt, settledAt sql.NullTime

	err := row.Scan(&w.ID, &w.AccountID, &kind, &w.Subject, &w.Pick,
		&w.StakeCents, &w.Odds, &status, &w.PayoutCents, &closeAt, &w.CreatedAt, &settledAt)
	if err != nil {
		return nil, err
	}

	w.Kind = Kind(kind)
	w.Status = Status(status)
	if closeAt.Valid {
		w.CloseAt = closeAt.Time
	}
	if settledAt.Valid {
		w.SettledAt = &settledAt.Time
	}
	return &w, nil
}

// WagerByID returns a wager or ErrNotFound.
func (p *PostgresStore) WagerByID(ctx context.Context, id int64) (*Wager, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE id = $1`, id)

	w, err := scanWager(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select wager: %w", err)
	}
	return w, nil
}

func (p *PostgresStore) queryWagers(ctx context.Context, query string, args ...interface{}) ([]*Wager, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select wagers: %w", err)
	}
	defer rows.Close()

	var out []*Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wager: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// WagersBySubject lists wagers on a subject with the given status.
func (p *PostgresStore) WagersBySubject(ctx context.Context, subject string, status Status) ([]*Wager, error) {
	return p.queryWagers(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE subject = $1 AND status = $2 ORDER BY id`,
		subject, string(status))
}

// WagersByAccount lists an account's wagers.
func (p *PostgresStore) WagersByAccount(ctx context.Context, accountID int64, pendingOnly bool) ([]*Wager, error) {
	if pendingOnly {
		return p.queryWagers(ctx,
			`SELECT `+wagerColumns+` FROM wagers WHERE account_id = $1 AND status = 'pending' ORDER BY id`,
			accountID)
	}
	return p.queryWagers(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE account_id = $1 ORDER BY id`,
		accountID)
}

// TerminalizeWager conditionally finalizes a pending wager. The status
// guard in the WHERE clause is what makes re-resolution a no-op.
func (p *PostgresStore) TerminalizeWager(ctx context.Context, id int64, status Status, payoutCents int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE wagers
		SET status = $2, payout_cents = $3, settled_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, string(status), payoutCents)
	if err != nil {
		return false, fmt.Errorf("terminalize wager: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	WagersSettledTotal.WithLabelValues(string(status)).Inc()
	return true, nil
}

// CreateParlay persists a parlay with its legs in one transaction.
func (p *PostgresStore) CreateParlay(ctx context.Context, parlay *Parlay) error {
	if len(parlay.Legs) < 2 {
		return ErrTooFewLegs
	}
	if parlay.StakeCents <= 0 {
		return ErrInvalidStake
	}
	for _, leg := range parlay.Legs {
		if leg.Odds < 1.0 {
			return ErrInvalidOdds
		}
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	parlay.Status = StatusPending
	parlay.CreatedAt = time.Now()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO parlays (account_id, stake_cents, combined_odds, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		parlay.AccountID, parlay.StakeCents, parlay.CombinedOdds,
		string(StatusPending), parlay.CreatedAt,
	).Scan(&parlay.ID)
	if err != nil {
		return fmt.Errorf("insert parlay: %w", err)
	}

	for i := range parlay.Legs {
		leg := &parlay.Legs[i]
		leg.ParlayID = parlay.ID
		leg.Status = StatusPending

		var closeAt interface{}
		if !leg.CloseAt.IsZero() {
			closeAt = leg.CloseAt
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO parlay_legs (parlay_id, subject, pick, odds, status, close_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			parlay.ID, leg.Subject, leg.Pick, leg.Odds, string(StatusPending), closeAt,
		).Scan(&leg.ID)
		if err != nil {
			return fmt.Errorf("insert parlay leg: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit parlay: %w", err)
	}

	ParlaysCreatedTotal.Inc()
	return nil
}

// ParlayByID returns a parlay with its legs or ErrNotFound.
func (p *PostgresStore) ParlayByID(ctx context.Context, id int64) (*Parlay, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, account_id, stake_cents, combined_odds, status, payout_cents, created_at, settled_at
		FROM parlays WHERE id = $1`, id)

	parlay, err := scanParlay(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select parlay: %w", err)
	}

	err = p.loadLegs(ctx, parlay)
	if err != nil {
		return nil, err
	}
	return parlay, nil
}

func scanParlay(row interface{ Scan(...interface{}) error }) (*Parlay, error) {
	var parlay Parlay
	var status string
	var settledAt sql.NullTime

	err := row.Scan(&parlay.ID, &parlay.AccountID, &parlay.StakeCents,
		&parlay.CombinedOdds, &status, &parlay.PayoutCents, &parlay.CreatedAt, &settledAt)
	if err != nil {
		return nil, err
	}

	parlay.Status = Status(status)
	if settledAt.Valid {
		parlay.SettledAt = &settledAt.Time
	}
	return &parlay, nil
}

func (p *PostgresStore) loadLegs(ctx context.Context, parlay *Parlay) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, parlay_id, subject, pick, odds, status, close_at
		FROM parlay_legs WHERE parlay_id = $1 ORDER BY id`, parlay.ID)
	if err != nil {
		return fmt.Errorf("select legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg Leg
		var status string
		var closeAt sql.NullTime

		err = rows.Scan(&leg.ID, &leg.ParlayID, &leg.Subject, &leg.Pick, &leg.Odds, &status, &closeAt)
		if err != nil {
			return fmt.Errorf("scan leg: %w", err)
		}
		leg.Status = Status(status)
		if closeAt.Valid {
			leg.CloseAt = closeAt.Time
		}
		parlay.Legs = append(parlay.Legs, leg)
	}
	return rows.Err()
}

// ParlaysByAccount lists an account's parlays with legs.
func (p *PostgresStore) ParlaysByAccount(ctx context.Context, accountID int64, pendingOnly bool) ([]*Parlay, error) {
	query := `
		SELECT id, account_id, stake_cents, combined_odds, status, payout_cents, created_at, settled_at
		FROM parlays WHERE account_id = $1 ORDER BY id`
	if pendingOnly {
		query = `
		SELECT id, account_id, stake_cents, combined_odds, status, payout_cents, created_at, settled_at
		FROM parlays WHERE account_id = $1 AND status = 'pending' ORDER BY id`
	}

	rows, err := p.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("select parlays: %w", err)
	}
	defer rows.Close()

	var out []*Parlay
	for rows.Next() {
		parlay, err := scanParlay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parlay: %w", err)
		}
		out = append(out, parlay)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, parlay := range out {
		err = p.loadLegs(ctx, parlay)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LegsBySubject lists parlay legs on a subject with the given status.
func (p *PostgresStore) LegsBySubject(ctx context.Context, subject string, status Status) ([]*Leg, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, parlay_id, subject, pick, odds, status, close_at
		FROM parlay_legs WHERE subject = $1 AND status = $2 ORDER BY id`,
		subject, string(status))
	if err != nil {
		return nil, fmt.Errorf("select legs by subject: %w", err)
	}
	defer rows.Close()

	var out []*Leg
	for rows.Next() {
		var leg Leg
		var st string
		var closeAt sql.NullTime

		err = rows.Scan(&leg.ID, &leg.ParlayID, &leg.Subject, &leg.Pick, &leg.Odds, &st, &closeAt)
		if err != nil {
			return nil, fmt.Errorf("scan leg: %w", err)
		}
		leg.Status = Status(st)
		if closeAt.Valid {
			leg.CloseAt = closeAt.Time
		}
		out = append(out, &leg)
	}
	return out, rows.Err()
}

// TerminalizeLeg conditionally finalizes a pending leg.
func (p *PostgresStore) TerminalizeLeg(ctx context.Context, legID int64, status Status) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE parlay_legs SET status = $2
		WHERE id = $1 AND status = 'pending'`,
		legID, string(status))
	if err != nil {
		return false, fmt.Errorf("terminalize leg: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TerminalizeParlay conditionally finalizes a pending parlay.
func (p *PostgresStore) TerminalizeParlay(ctx context.Context, id int64, status Status, payoutCents int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE parlays
		SET status = $2, payout_cents = $3, settled_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, string(status), payoutCents)
	if err != nil {
		return false, fmt.Errorf("terminalize parlay: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	ParlaysSettledTotal.WithLabelValues(string(status)).Inc()
	return true, nil
}

// PendingSubjects projects the distinct subjects still awaiting
// resolution across both families, with the earliest known close time.
func (p *PostgresStore) PendingSubjects(ctx context.Context) ([]PendingSubject, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT subject, MIN(close_at)
		FROM (
			SELECT subject, close_at FROM wagers WHERE status = 'pending'
			UNION ALL
			SELECT l.subject, l.close_at
			FROM parlay_legs l
			JOIN parlays p ON p.id = l.parlay_id
			WHERE l.status = 'pending' AND p.status = 'pending'
		) pending
		GROUP BY subject
		ORDER BY subject`)
	if err != nil {
		return nil, fmt.Errorf("select pending subjects: %w", err)
	}
	defer rows.Close()

	var out []PendingSubject
	for rows.Next() {
		var ps PendingSubject
		var closeAt sql.NullTime

		err = rows.Scan(&ps.Subject, &closeAt)
		if err != nil {
			return nil, fmt.Errorf("scan pending subject: %w", err)
		}
		if closeAt.Valid {
			ps.CloseAt = closeAt.Time
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// ResolvableParlays returns pending parlays whose legs already decided
// the outcome. Settlement normally closes the parent in the same step
// as the deciding leg; a crash between the two writes leaves a parlay
// this query picks back up.
func (p *PostgresStore) ResolvableParlays(ctx context.Context) ([]*Parlay, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, stake_cents, combined_odds, status, payout_cents, created_at, settled_at
		FROM parlays pa
		WHERE pa.status = 'pending'
		AND (
			NOT EXISTS (SELECT 1 FROM parlay_legs l WHERE l.parlay_id = pa.id AND l.status = 'pending')
			OR EXISTS (SELECT 1 FROM parlay_legs l WHERE l.parlay_id = pa.id AND l.status = 'lost')
		)
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select resolvable parlays: %w", err)
	}
	defer rows.Close()

	var out []*Parlay
	for rows.Next() {
		parlay, err := scanParlay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parlay: %w", err)
		}
		out = append(out, parlay)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, parlay := range out {
		err = p.loadLegs(ctx, parlay)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-wager-store")
	return p.db.Close()
}
