package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/ledger-atlas/pkg/services/catalog"
	"github.com/de-tools/ledger-atlas/pkg/services/config"
	"github.com/de-tools/ledger-atlas/pkg/services/ingest"
	"github.com/de-tools/ledger-atlas/pkg/services/stats"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb"
	cachestore "github.com/de-tools/ledger-atlas/pkg/store/duckdb/cache"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb/records"
	"github.com/de-tools/ledger-atlas/pkg/terminal"
	"github.com/de-tools/ledger-atlas/pkg/terminal/commands"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Factory: newRuntime,
		Output:  os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRuntime(_ context.Context, configPath string) (*commands.Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Storage.DbPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB instance: %w", err)
	}

	recordStore, err := records.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records store: %w", err)
	}
	cacheStore, err := cachestore.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	engine := stats.NewEngine(stats.DefaultPolicy())

	return &commands.Runtime{
		Catalog: catalog.NewService(recordStore, cacheStore, engine, cfg.CacheTTL()),
		Loader:  ingest.NewLoader(db, recordStore),
		Close:   db.Close,
	}, nil
}
