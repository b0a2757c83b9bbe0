package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	vertical    TEXT NOT NULL DEFAULT '',
	size_metric REAL,
	opt_out     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS measurements (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	product_id TEXT NOT NULL DEFAULT '',
	kpi        TEXT NOT NULL,
	raw_value  TEXT NOT NULL,
	component  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reference_ranges (
	kpi              TEXT PRIMARY KEY,
	category         TEXT NOT NULL DEFAULT '',
	unit             TEXT NOT NULL DEFAULT '',
	higher_is_better INTEGER NOT NULL,
	low_min          REAL NOT NULL,
	low_max          REAL NOT NULL,
	medium_min       REAL NOT NULL,
	medium_max       REAL NOT NULL,
	high_min         REAL NOT NULL,
	high_max         REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS health_trends (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL,
	year        INTEGER NOT NULL,
	month       INTEGER NOT NULL,
	score       TEXT NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(account_id, year, month)
);

CREATE INDEX IF NOT EXISTS idx_measurements_account_id ON measurements(account_id);
CREATE INDEX IF NOT EXISTS idx_measurements_kpi ON measurements(kpi);
CREATE INDEX IF NOT EXISTS idx_health_trends_account_id ON health_trends(account_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertAccount(ctx context.Context, account model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, vertical, size_metric, opt_out) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, vertical = excluded.vertical,
		 size_metric = excluded.size_metric, opt_out = excluded.opt_out`,
		account.ID, account.Name, account.Vertical, account.SizeMetric, account.OptOut,
	)
	return eris.Wrapf(err, "sqlite: upsert account %s", account.ID)
}

func (s *SQLiteStore) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, vertical, size_metric, opt_out FROM accounts WHERE id = ?`,
		accountID,
	)
	var a model.Account
	err := row.Scan(&a.ID, &a.Name, &a.Vertical, &a.SizeMetric, &a.OptOut)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: account not found: %s", accountID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan account")
	}
	return &a, nil
}

func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, vertical, size_metric, opt_out FROM accounts ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list accounts")
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Vertical, &a.SizeMetric, &a.OptOut); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		accounts = append(accounts, a)
	}
	return accounts, eris.Wrap(rows.Err(), "sqlite: list accounts iterate")
}

func (s *SQLiteStore) InsertMeasurements(ctx context.Context, measurements []model.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert measurements")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, m := range measurements {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO measurements (id, account_id, product_id, kpi, raw_value, component, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, m.AccountID, m.ProductID, m.KPI, m.RawValue, m.Component, createdAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert measurement %s/%s", m.AccountID, m.KPI)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit measurements")
}

func (s *SQLiteStore) ListMeasurements(ctx context.Context, accountID string) ([]model.Measurement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, product_id, kpi, raw_value, component, created_at
		 FROM measurements WHERE account_id = ? ORDER BY created_at, id`,
		accountID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list measurements for %s", accountID)
	}
	defer rows.Close()

	var out []model.Measurement
	for rows.Next() {
		var m model.Measurement
		if err := rows.Scan(&m.ID, &m.AccountID, &m.ProductID, &m.KPI, &m.RawValue, &m.Component, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan measurement")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list measurements iterate")
}

func (s *SQLiteStore) ReplaceReferenceRanges(ctx context.Context, ranges []refrange.ReferenceRange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace ranges")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_ranges`); err != nil {
		return eris.Wrap(err, "sqlite: clear reference ranges")
	}
	for _, r := range ranges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reference_ranges
			 (kpi, category, unit, higher_is_better, low_min, low_max, medium_min, medium_max, high_min, high_max)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.KPI, r.Category, r.Unit, r.HigherIsBetter,
			r.Low.Min, r.Low.Max, r.Medium.Min, r.Medium.Max, r.High.Min, r.High.Max,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert range %s", r.KPI)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace ranges")
}

func (s *SQLiteStore) ListReferenceRanges(ctx context.Context) ([]refrange.ReferenceRange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kpi, category, unit, higher_is_better, low_min, low_max, medium_min, medium_max, high_min, high_max
		 FROM reference_ranges ORDER BY kpi`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reference ranges")
	}
	defer rows.Close()

	var out []refrange.ReferenceRange
	for rows.Next() {
		var r refrange.ReferenceRange
		err := rows.Scan(&r.KPI, &r.Category, &r.Unit, &r.HigherIsBetter,
			&r.Low.Min, &r.Low.Max, &r.Medium.Min, &r.Medium.Max, &r.High.Min, &r.High.Max)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reference range")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list ranges iterate")
}

func (s *SQLiteStore) UpsertTrendSnapshot(ctx context.Context, accountID string, year, month int, score model.AccountHealthScore) (*model.TrendSnapshot, error) {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal score")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO health_trends (id, account_id, year, month, score, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_id, year, month) DO UPDATE SET
		   score = excluded.score, recorded_at = excluded.recorded_at`,
		uuid.New().String(), accountID, year, month, string(scoreJSON), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert trend %s %d-%02d", accountID, year, month)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, year, month, score, recorded_at
		 FROM health_trends WHERE account_id = ? AND year = ? AND month = ?`,
		accountID, year, month,
	)
	return scanTrend(row)
}

func (s *SQLiteStore) ListTrendSnapshots(ctx context.Context, accountID string, limit int) ([]model.TrendSnapshot, error) {
	if limit <= 0 {
		limit = 24
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, year, month, score, recorded_at
		 FROM health_trends WHERE account_id = ?
		 ORDER BY year DESC, month DESC LIMIT ?`,
		accountID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list trends for %s", accountID)
	}
	defer rows.Close()

	var out []model.TrendSnapshot
	for rows.Next() {
		ts, err := scanTrend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list trends iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanTrend(row scannable) (*model.TrendSnapshot, error) {
	var ts model.TrendSnapshot
	var scoreJSON string

	err := row.Scan(&ts.ID, &ts.AccountID, &ts.Year, &ts.Month, &scoreJSON, &ts.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("sqlite: trend snapshot not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan trend")
	}
	if err := json.Unmarshal([]byte(scoreJSON), &ts.Score); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal trend score")
	}
	return &ts, nil
}
