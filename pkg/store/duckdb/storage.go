package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const FinancialRecordsSchema = `
	CREATE TABLE IF NOT EXISTS financial_records (
		id VARCHAR NOT NULL PRIMARY KEY,
		document_type VARCHAR,
		vendor VARCHAR,
		category VARCHAR,
		total DOUBLE NOT NULL,
		quantity DOUBLE,
		unit_price DOUBLE,
		record_date TIMESTAMP NOT NULL,
		source_file VARCHAR,
		metadata JSON
	);
`

const AnalyticsCacheSchema = `
	CREATE TABLE IF NOT EXISTS analytics_cache (
		cache_key VARCHAR NOT NULL PRIMARY KEY,
		payload JSON NOT NULL,
		computed_at TIMESTAMP NOT NULL
	);
`

var bootQueries = []string{
	FinancialRecordsSchema,
	AnalyticsCacheSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
