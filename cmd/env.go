package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
	"github.com/sells-group/health-engine/internal/scoring"
	"github.com/sells-group/health-engine/internal/store"
	"github.com/sells-group/health-engine/internal/trend"
)

// env bundles the wired dependencies shared by the commands.
type env struct {
	Store           store.Store
	Engine          *scoring.Engine
	Recorder        *trend.Recorder
	DefaultVertical string
}

// initEnv opens the configured store and builds the scoring engine from the
// configured reference ranges and vertical profiles.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	table, err := loadRangeTable(ctx, st)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	verticals, err := loadVerticals()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	engine := scoring.NewEngine(table, verticals)
	recorder := trend.NewRecorder(st, engine, cfg.Scoring.SnapshotConcurrency)

	return &env{
		Store:           st,
		Engine:          engine,
		Recorder:        recorder,
		DefaultVertical: cfg.Scoring.DefaultVertical,
	}, nil
}

// vertical resolves the profile name for an account. An explicit override
// wins; an account with no vertical of its own gets the configured default.
func (e *env) vertical(account *model.Account, override string) string {
	if override != "" {
		return override
	}
	if account.Vertical != "" {
		return account.Vertical
	}
	return e.DefaultVertical
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadRangeTable resolves the reference range table: an explicit file wins,
// then the store's admin-maintained catalog, then the built-in defaults.
func loadRangeTable(ctx context.Context, st store.Store) (*refrange.Table, error) {
	if cfg.Scoring.RangesFile != "" {
		return refrange.Load(cfg.Scoring.RangesFile)
	}

	ranges, err := st.ListReferenceRanges(ctx)
	if err != nil {
		zap.L().Warn("load reference ranges from store, using defaults", zap.Error(err))
		return refrange.DefaultTable(), nil
	}
	if len(ranges) == 0 {
		return refrange.DefaultTable(), nil
	}
	return refrange.NewTable(ranges)
}

func loadVerticals() (*scoring.Registry, error) {
	if cfg.Scoring.VerticalsFile != "" {
		return scoring.LoadProfiles(cfg.Scoring.VerticalsFile)
	}
	return scoring.NewRegistry(scoring.DefaultProfiles())
}

// printJSON renders a command result to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(out))
	return nil
}
