package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedAccount(t *testing.T, st *SQLiteStore, id string) {
	t.Helper()
	require.NoError(t, st.UpsertAccount(context.Background(), model.Account{ID: id, Name: "Acme " + id}))
}

func TestSQLite_Accounts_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sizeMetric := 250000.0
	acct := model.Account{ID: "a1", Name: "Acme", Vertical: "datacenter", SizeMetric: &sizeMetric}
	require.NoError(t, st.UpsertAccount(ctx, acct))

	got, err := st.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "datacenter", got.Vertical)
	require.NotNil(t, got.SizeMetric)
	assert.InDelta(t, 250000, *got.SizeMetric, 0.001)

	// Upsert overwrites.
	acct.Name = "Acme Corp"
	acct.OptOut = true
	require.NoError(t, st.UpsertAccount(ctx, acct))

	got, err = st.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.True(t, got.OptOut)

	all, err := st.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_Accounts_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetAccount(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Measurements_InsertAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedAccount(t, st, "a1")

	err := st.InsertMeasurements(ctx, []model.Measurement{
		{AccountID: "a1", KPI: "CSAT", RawValue: "9"},
		{AccountID: "a1", KPI: "NPS", RawValue: "42", Component: "Customer Sentiment"},
	})
	require.NoError(t, err)

	got, err := st.ListMeasurements(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, "CSAT", got[0].KPI)
	assert.Equal(t, "Customer Sentiment", got[1].Component)

	other, err := st.ListMeasurements(ctx, "a2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLite_ReferenceRanges_ReplaceAll(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.ReplaceReferenceRanges(ctx, refrange.Defaults()))

	got, err := st.ListReferenceRanges(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(refrange.Defaults()))

	// Replace with a smaller set clears the old rows.
	one := []refrange.ReferenceRange{{
		KPI: "CSAT", Category: refrange.CategorySentiment, Unit: "/10", HigherIsBetter: true,
		Low:    refrange.Band{Min: 0, Max: 5},
		Medium: refrange.Band{Min: 5, Max: 7.5},
		High:   refrange.Band{Min: 7.5, Max: 10},
	}}
	require.NoError(t, st.ReplaceReferenceRanges(ctx, one))

	got, err = st.ListReferenceRanges(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CSAT", got[0].KPI)
	assert.True(t, got[0].HigherIsBetter)
	assert.InDelta(t, 7.5, got[0].High.Min, 0.001)
}

func TestSQLite_TrendSnapshot_UpsertIsIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := 72.5
	score := model.AccountHealthScore{AccountID: "a1", Overall: &first, Classification: model.ClassHealthy}

	ts1, err := st.UpsertTrendSnapshot(ctx, "a1", 2026, 8, score)
	require.NoError(t, err)
	assert.Equal(t, 2026, ts1.Year)
	assert.Equal(t, 8, ts1.Month)

	// Second record for the same key overwrites, leaving exactly one row.
	second := 55.0
	score.Overall = &second
	score.Classification = model.ClassAtRisk
	_, err = st.UpsertTrendSnapshot(ctx, "a1", 2026, 8, score)
	require.NoError(t, err)

	snaps, err := st.ListTrendSnapshots(ctx, "a1", 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.NotNil(t, snaps[0].Score.Overall)
	assert.InDelta(t, 55.0, *snaps[0].Score.Overall, 0.001)
	assert.Equal(t, model.ClassAtRisk, snaps[0].Score.Classification)
}

func TestSQLite_TrendSnapshots_OrderAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	v := 60.0
	score := model.AccountHealthScore{AccountID: "a1", Overall: &v}
	for _, ym := range [][2]int{{2026, 6}, {2026, 7}, {2026, 8}, {2025, 12}} {
		_, err := st.UpsertTrendSnapshot(ctx, "a1", ym[0], ym[1], score)
		require.NoError(t, err)
	}

	snaps, err := st.ListTrendSnapshots(ctx, "a1", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, [2]int{2026, 8}, [2]int{snaps[0].Year, snaps[0].Month})
	assert.Equal(t, [2]int{2026, 7}, [2]int{snaps[1].Year, snaps[1].Month})
}

func TestSQLite_TrendSnapshot_PreservesNilOverall(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	score := model.AccountHealthScore{AccountID: "a1", Classification: model.ClassUnscored}
	_, err := st.UpsertTrendSnapshot(ctx, "a1", 2026, 8, score)
	require.NoError(t, err)

	snaps, err := st.ListTrendSnapshots(ctx, "a1", 1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Nil(t, snaps[0].Score.Overall)
	assert.Equal(t, model.ClassUnscored, snaps[0].Score.Classification)
}

type noRowsScanner struct{}

func (noRowsScanner) Scan(dest ...any) error { return sql.ErrNoRows }

func TestScanTrend_NotFoundError(t *testing.T) {
	_, err := scanTrend(noRowsScanner{})
	require.Error(t, err)
	assert.Equal(t, "sqlite: trend snapshot not found", err.Error())
}
