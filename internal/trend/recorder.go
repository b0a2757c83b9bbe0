// Package trend records periodic per-account health score snapshots for
// month-over-month analysis.
package trend

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/scoring"
	"github.com/sells-group/health-engine/internal/store"
)

// Recorder scores accounts and persists monthly trend snapshots.
type Recorder struct {
	store       store.Store
	engine      *scoring.Engine
	concurrency int
}

// NewRecorder creates a Recorder. Concurrency bounds the per-account fan-out
// of SnapshotAll; values below 1 run sequentially.
func NewRecorder(st store.Store, engine *scoring.Engine, concurrency int) *Recorder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Recorder{store: st, engine: engine, concurrency: concurrency}
}

// Record persists one account's score for the given month. Calling it again
// for the same (account, year, month) replaces the stored snapshot, so a
// re-run after a data correction never duplicates history.
func (r *Recorder) Record(ctx context.Context, accountID string, year, month int, score model.AccountHealthScore) (*model.TrendSnapshot, error) {
	if month < 1 || month > 12 {
		return nil, eris.Errorf("trend: invalid month %d", month)
	}
	ts, err := r.store.UpsertTrendSnapshot(ctx, accountID, year, month, score)
	if err != nil {
		return nil, eris.Wrapf(err, "trend: record %s %d-%02d", accountID, year, month)
	}
	return ts, nil
}

// Summary reports the outcome of a portfolio snapshot run.
type Summary struct {
	Accounts int `json:"accounts"`
	Recorded int `json:"recorded"`
	Unscored int `json:"unscored"` // snapshots stored with an undefined overall
}

// SnapshotAll scores every account in the store and records a snapshot for
// each. Accounts are scored concurrently; each account's measurements come
// from a single store read so the engine sees a consistent set. Unscored
// accounts still get a snapshot; a month with no data is itself a signal.
func (r *Recorder) SnapshotAll(ctx context.Context, year, month int) (Summary, error) {
	if month < 1 || month > 12 {
		return Summary{}, eris.Errorf("trend: invalid month %d", month)
	}

	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return Summary{}, eris.Wrap(err, "trend: list accounts")
	}

	var (
		mu      sync.Mutex
		summary = Summary{Accounts: len(accounts)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, acct := range accounts {
		g.Go(func() error {
			measurements, err := r.store.ListMeasurements(gctx, acct.ID)
			if err != nil {
				return eris.Wrapf(err, "trend: measurements for %s", acct.ID)
			}

			score := r.engine.ScoreAccount(acct.ID, acct.Vertical, measurements)
			if _, err := r.store.UpsertTrendSnapshot(gctx, acct.ID, year, month, score); err != nil {
				return eris.Wrapf(err, "trend: snapshot %s", acct.ID)
			}

			mu.Lock()
			summary.Recorded++
			if score.Overall == nil {
				summary.Unscored++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	zap.L().Info("trend: portfolio snapshot complete",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("accounts", summary.Accounts),
		zap.Int("recorded", summary.Recorded),
		zap.Int("unscored", summary.Unscored),
	)
	return summary, nil
}
