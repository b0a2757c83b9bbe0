package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/health-engine/internal/db"
	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	vertical    TEXT NOT NULL DEFAULT '',
	size_metric DOUBLE PRECISION,
	opt_out     BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS measurements (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	product_id TEXT NOT NULL DEFAULT '',
	kpi        TEXT NOT NULL,
	raw_value  TEXT NOT NULL,
	component  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reference_ranges (
	kpi              TEXT PRIMARY KEY,
	category         TEXT NOT NULL DEFAULT '',
	unit             TEXT NOT NULL DEFAULT '',
	higher_is_better BOOLEAN NOT NULL,
	low_min          DOUBLE PRECISION NOT NULL,
	low_max          DOUBLE PRECISION NOT NULL,
	medium_min       DOUBLE PRECISION NOT NULL,
	medium_max       DOUBLE PRECISION NOT NULL,
	high_min         DOUBLE PRECISION NOT NULL,
	high_max         DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS health_trends (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL,
	year        INT NOT NULL,
	month       INT NOT NULL,
	score       JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(account_id, year, month)
);

CREATE INDEX IF NOT EXISTS idx_measurements_account_id ON measurements(account_id);
CREATE INDEX IF NOT EXISTS idx_measurements_kpi ON measurements(kpi);
CREATE INDEX IF NOT EXISTS idx_health_trends_account_id ON health_trends(account_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertAccount(ctx context.Context, account model.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, name, vertical, size_metric, opt_out) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, vertical = EXCLUDED.vertical,
		 size_metric = EXCLUDED.size_metric, opt_out = EXCLUDED.opt_out`,
		account.ID, account.Name, account.Vertical, account.SizeMetric, account.OptOut,
	)
	return eris.Wrapf(err, "postgres: upsert account %s", account.ID)
}

func (s *PostgresStore) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, vertical, size_metric, opt_out FROM accounts WHERE id = $1`,
		accountID,
	)
	var a model.Account
	err := row.Scan(&a.ID, &a.Name, &a.Vertical, &a.SizeMetric, &a.OptOut)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: account not found: %s", accountID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan account")
	}
	return &a, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, vertical, size_metric, opt_out FROM accounts ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list accounts")
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Vertical, &a.SizeMetric, &a.OptOut); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		accounts = append(accounts, a)
	}
	return accounts, eris.Wrap(rows.Err(), "postgres: list accounts iterate")
}

func (s *PostgresStore) InsertMeasurements(ctx context.Context, measurements []model.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(measurements))
	for _, m := range measurements {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		rows = append(rows, []any{id, m.AccountID, m.ProductID, m.KPI, m.RawValue, m.Component, createdAt})
	}

	_, err := db.CopyFrom(ctx, s.pool, "measurements",
		[]string{"id", "account_id", "product_id", "kpi", "raw_value", "component", "created_at"},
		rows,
	)
	return eris.Wrap(err, "postgres: insert measurements")
}

func (s *PostgresStore) ListMeasurements(ctx context.Context, accountID string) ([]model.Measurement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, product_id, kpi, raw_value, component, created_at
		 FROM measurements WHERE account_id = $1 ORDER BY created_at, id`,
		accountID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list measurements for %s", accountID)
	}
	defer rows.Close()

	var out []model.Measurement
	for rows.Next() {
		var m model.Measurement
		if err := rows.Scan(&m.ID, &m.AccountID, &m.ProductID, &m.KPI, &m.RawValue, &m.Component, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan measurement")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list measurements iterate")
}

// ReplaceReferenceRanges clears and repopulates the range table in one
// transaction, so concurrent scoring runs see either the old or the new
// catalog, never a mix.
func (s *PostgresStore) ReplaceReferenceRanges(ctx context.Context, ranges []refrange.ReferenceRange) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace ranges")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM reference_ranges`); err != nil {
		return eris.Wrap(err, "postgres: clear reference ranges")
	}

	rows := make([][]any, 0, len(ranges))
	for _, r := range ranges {
		rows = append(rows, []any{
			r.KPI, r.Category, r.Unit, r.HigherIsBetter,
			r.Low.Min, r.Low.Max, r.Medium.Min, r.Medium.Max, r.High.Min, r.High.Max,
		})
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"reference_ranges"},
			[]string{"kpi", "category", "unit", "higher_is_better", "low_min", "low_max", "medium_min", "medium_max", "high_min", "high_max"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return eris.Wrap(err, "postgres: copy reference ranges")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace ranges")
}

func (s *PostgresStore) ListReferenceRanges(ctx context.Context) ([]refrange.ReferenceRange, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kpi, category, unit, higher_is_better, low_min, low_max, medium_min, medium_max, high_min, high_max
		 FROM reference_ranges ORDER BY kpi`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reference ranges")
	}
	defer rows.Close()

	var out []refrange.ReferenceRange
	for rows.Next() {
		var r refrange.ReferenceRange
		err := rows.Scan(&r.KPI, &r.Category, &r.Unit, &r.HigherIsBetter,
			&r.Low.Min, &r.Low.Max, &r.Medium.Min, &r.Medium.Max, &r.High.Min, &r.High.Max)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan reference range")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list ranges iterate")
}

func (s *PostgresStore) UpsertTrendSnapshot(ctx context.Context, accountID string, year, month int, score model.AccountHealthScore) (*model.TrendSnapshot, error) {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal score")
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO health_trends (id, account_id, year, month, score, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (account_id, year, month) DO UPDATE SET
		   score = EXCLUDED.score, recorded_at = EXCLUDED.recorded_at
		 RETURNING id, recorded_at`,
		uuid.New().String(), accountID, year, month, scoreJSON, time.Now().UTC(),
	)

	ts := model.TrendSnapshot{AccountID: accountID, Year: year, Month: month, Score: score}
	if err := row.Scan(&ts.ID, &ts.RecordedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert trend %s %d-%02d", accountID, year, month)
	}
	return &ts, nil
}

func (s *PostgresStore) ListTrendSnapshots(ctx context.Context, accountID string, limit int) ([]model.TrendSnapshot, error) {
	if limit <= 0 {
		limit = 24
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, year, month, score, recorded_at
		 FROM health_trends WHERE account_id = $1
		 ORDER BY year DESC, month DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list trends for %s", accountID)
	}
	defer rows.Close()

	var out []model.TrendSnapshot
	for rows.Next() {
		var ts model.TrendSnapshot
		var scoreJSON []byte
		if err := rows.Scan(&ts.ID, &ts.AccountID, &ts.Year, &ts.Month, &scoreJSON, &ts.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trend")
		}
		if err := json.Unmarshal(scoreJSON, &ts.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal trend score")
		}
		out = append(out, ts)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list trends iterate")
}
