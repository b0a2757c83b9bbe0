// Package store persists accounts, measurements, reference ranges, and
// health trend snapshots behind a driver-agnostic interface.
package store

import (
	"context"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// Store defines the persistence interface for the scoring engine. Reads used
// by a single scoring run go through one query so the engine sees a
// consistent measurement set.
type Store interface {
	// Accounts
	UpsertAccount(ctx context.Context, account model.Account) error
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Measurements
	InsertMeasurements(ctx context.Context, measurements []model.Measurement) error
	ListMeasurements(ctx context.Context, accountID string) ([]model.Measurement, error)

	// Reference ranges (administrative replace-all, transactional)
	ReplaceReferenceRanges(ctx context.Context, ranges []refrange.ReferenceRange) error
	ListReferenceRanges(ctx context.Context) ([]refrange.ReferenceRange, error)

	// Trend snapshots: one per (account_id, year, month), upsert semantics.
	UpsertTrendSnapshot(ctx context.Context, accountID string, year, month int, score model.AccountHealthScore) (*model.TrendSnapshot, error)
	ListTrendSnapshots(ctx context.Context, accountID string, limit int) ([]model.TrendSnapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
