package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/server"
	"github.com/de-tools/ledger-atlas/pkg/services/catalog"
	"github.com/de-tools/ledger-atlas/pkg/services/config"
	"github.com/de-tools/ledger-atlas/pkg/services/stats"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb"
	cachestore "github.com/de-tools/ledger-atlas/pkg/store/duckdb/cache"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb/records"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the analytics web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Storage.DbPath})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	recordStore, err := records.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create records store: %w", err)
	}
	cacheStore, err := cachestore.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}

	engine := stats.NewEngine(stats.DefaultPolicy())
	svc := catalog.NewService(recordStore, cacheStore, engine, cfg.CacheTTL())

	logger.Info().Str("db_path", cfg.Storage.DbPath).Msg("storage ready")

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Dependencies: server.Dependencies{
			Catalog: svc,
		},
	})

	return api.Start()
}
