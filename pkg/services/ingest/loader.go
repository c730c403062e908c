package ingest

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/ledger-atlas/pkg/models/store"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb/records"
)

const defaultBatchSize = 500

// rawRecord is the JSON-lines shape produced by the extraction pipeline
// upstream of this engine.
type rawRecord struct {
	ID           string            `json:"id"`
	DocumentType string            `json:"document_type"`
	Vendor       string            `json:"vendor"`
	Category     string            `json:"category"`
	Total        float64           `json:"total"`
	Quantity     *float64          `json:"quantity"`
	UnitPrice    *float64          `json:"unit_price"`
	Date         string            `json:"date"`
	SourceFile   string            `json:"source_file"`
	Metadata     map[string]string `json:"metadata"`
}

// Loader ingests extracted records into the record store in transactional
// batches. Records without an ID get one assigned.
type Loader struct {
	db        *sql.DB
	store     records.Store
	batchSize int
}

func NewLoader(db *sql.DB, recordStore records.Store) *Loader {
	return &Loader{
		db:        db,
		store:     recordStore,
		batchSize: defaultBatchSize,
	}
}

// LoadFile reads a JSON-lines file and inserts its records, returning
// the number loaded. Malformed lines abort the load so a partial file
// never silently half-ingests.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, f)
}

func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	logger := zerolog.Ctx(ctx)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	batch := make([]store.FinancialRecord, 0, l.batchSize)
	loaded := 0
	line := 0

	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		record, err := parseRecord(raw)
		if err != nil {
			return loaded, fmt.Errorf("line %d: %w", line, err)
		}

		batch = append(batch, record)
		if len(batch) >= l.batchSize {
			if err := l.flush(ctx, batch); err != nil {
				return loaded, err
			}
			loaded += len(batch)
			logger.Info().Int("loaded", loaded).Msg("ingest progress")
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("read records: %w", err)
	}

	if len(batch) > 0 {
		if err := l.flush(ctx, batch); err != nil {
			return loaded, err
		}
		loaded += len(batch)
	}

	return loaded, nil
}

func (l *Loader) flush(ctx context.Context, batch []store.FinancialRecord) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest transaction: %w", err)
	}

	if err := l.store.Add(duckdb.WithTransaction(ctx, tx), batch); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest transaction: %w", err)
	}
	return nil
}

var recordDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

func parseRecord(raw []byte) (store.FinancialRecord, error) {
	var in rawRecord
	if err := json.Unmarshal(raw, &in); err != nil {
		return store.FinancialRecord{}, fmt.Errorf("decode record: %w", err)
	}

	if in.Date == "" {
		return store.FinancialRecord{}, fmt.Errorf("record is missing a date")
	}
	var date time.Time
	var err error
	for _, layout := range recordDateLayouts {
		if date, err = time.Parse(layout, in.Date); err == nil {
			break
		}
	}
	if err != nil {
		return store.FinancialRecord{}, fmt.Errorf("parse record date %q: %w", in.Date, err)
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	return store.FinancialRecord{
		ID:           id,
		DocumentType: in.DocumentType,
		Vendor:       in.Vendor,
		Category:     in.Category,
		Total:        in.Total,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		Date:         date,
		SourceFile:   in.SourceFile,
		Metadata:     in.Metadata,
	}, nil
}
