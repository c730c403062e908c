package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/ledger-atlas/pkg/models/store"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb"
)

// Store is the engine's view of the document store: filtered retrieval,
// pipeline-style aggregation and batch ingest. Reads never mutate records.
type Store interface {
	Add(ctx context.Context, records []store.FinancialRecord) error
	Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]store.FinancialRecord, error)
	Count(ctx context.Context, filter store.Filter) (int64, error)
	Aggregate(ctx context.Context, pipeline store.Pipeline) ([]store.GroupedRow, error)
}

type recordStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &recordStore{db: db}, nil
}

// columns maps the public field names used in filters and pipelines to
// table columns. Unknown fields are rejected before they reach SQL.
var columns = map[string]string{
	"id":            "id",
	"document_type": "document_type",
	"vendor":        "vendor",
	"category":      "category",
	"total":         "total",
	"quantity":      "quantity",
	"unit_price":    "unit_price",
	"date":          "record_date",
	"source_file":   "source_file",
}

var dateParts = map[string]bool{
	"year":    true,
	"quarter": true,
	"month":   true,
	"week":    true,
	"day":     true,
}

func column(field string) (string, error) {
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("unknown record field %q", field)
	}
	return col, nil
}

func (s *recordStore) Add(ctx context.Context, records []store.FinancialRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx := duckdb.GetTransaction(ctx)
	query := `
		INSERT INTO financial_records (
			id, document_type, vendor, category, total,
			quantity, unit_price, record_date, source_file, metadata
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = s.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}

	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		metadata, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			record.ID,
			record.DocumentType,
			record.Vendor,
			record.Category,
			record.Total,
			nullableFloat(record.Quantity),
			nullableFloat(record.UnitPrice),
			record.Date,
			record.SourceFile,
			metadata,
		)

		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return nil
}

func (s *recordStore) Find(
	ctx context.Context,
	filter store.Filter,
	opts store.FindOptions,
) ([]store.FinancialRecord, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, document_type, vendor, category, total, quantity, unit_price, record_date, source_file
		FROM financial_records` + where

	if opts.SortBy != "" {
		col, err := column(opts.SortBy)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if opts.SortDesc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", col, dir)
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

func (s *recordStore) Count(ctx context.Context, filter store.Filter) (int64, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}

	var count int64
	query := "SELECT COUNT(*) FROM financial_records" + where
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (s *recordStore) Aggregate(ctx context.Context, pipeline store.Pipeline) ([]store.GroupedRow, error) {
	if pipeline.Group == nil || len(pipeline.Group.Accumulators) == 0 {
		return nil, fmt.Errorf("aggregate pipeline requires a group stage with accumulators")
	}

	selects := make([]string, 0, len(pipeline.Group.Keys)+len(pipeline.Group.Accumulators))
	groupBy := make([]string, 0, len(pipeline.Group.Keys))
	outputs := make(map[string]bool)

	for _, key := range pipeline.Group.Keys {
		expr, err := groupKeyExpr(key)
		if err != nil {
			return nil, err
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", expr, key.Name))
		groupBy = append(groupBy, key.Name)
		outputs[key.Name] = true
	}

	for _, acc := range pipeline.Group.Accumulators {
		expr, err := accumulatorExpr(acc)
		if err != nil {
			return nil, err
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", expr, acc.Name))
		outputs[acc.Name] = true
	}

	where, args, err := buildWhere(pipeline.Match)
	if err != nil {
		return nil, err
	}

	// A group stage without keys aggregates the whole match set into a
	// single row.
	query := fmt.Sprintf("SELECT %s FROM financial_records%s", strings.Join(selects, ", "), where)
	if len(groupBy) > 0 {
		query += " GROUP BY " + strings.Join(groupBy, ", ")
	}

	if len(pipeline.Sort) > 0 {
		orders := make([]string, 0, len(pipeline.Sort))
		for _, sf := range pipeline.Sort {
			if !outputs[sf.Name] {
				return nil, fmt.Errorf("sort field %q is not produced by the group stage", sf.Name)
			}
			dir := "ASC"
			if sf.Desc {
				dir = "DESC"
			}
			orders = append(orders, fmt.Sprintf("%s %s", sf.Name, dir))
		}
		query += " ORDER BY " + strings.Join(orders, ", ")
	}
	if pipeline.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", pipeline.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate records: %w", err)
	}
	defer rows.Close()

	return scanGroupedRows(rows, pipeline.Group)
}

func groupKeyExpr(key store.GroupKey) (string, error) {
	col, err := column(key.Field)
	if err != nil {
		return "", err
	}
	if key.DatePart == "" {
		return col, nil
	}
	if !dateParts[key.DatePart] {
		return "", fmt.Errorf("unsupported date part %q", key.DatePart)
	}
	return fmt.Sprintf("CAST(date_part('%s', %s) AS INTEGER)", key.DatePart, col), nil
}

func accumulatorExpr(acc store.Accumulator) (string, error) {
	if acc.Op == store.AccumCount {
		return "COUNT(*)", nil
	}
	col, err := column(acc.Field)
	if err != nil {
		return "", err
	}
	switch acc.Op {
	case store.AccumSum:
		return fmt.Sprintf("SUM(%s)", col), nil
	case store.AccumAvg:
		return fmt.Sprintf("AVG(%s)", col), nil
	case store.AccumMin:
		return fmt.Sprintf("MIN(%s)", col), nil
	case store.AccumMax:
		return fmt.Sprintf("MAX(%s)", col), nil
	default:
		return "", fmt.Errorf("unsupported accumulator %q", acc.Op)
	}
}

func buildWhere(filter store.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	conditions := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	for _, cond := range filter {
		col, err := column(cond.Field)
		if err != nil {
			return "", nil, err
		}
		switch cond.Op {
		case store.OpEq:
			conditions = append(conditions, fmt.Sprintf("%s = ?", col))
			args = append(args, cond.Value)
		case store.OpGte:
			conditions = append(conditions, fmt.Sprintf("%s >= ?", col))
			args = append(args, cond.Value)
		case store.OpLte:
			conditions = append(conditions, fmt.Sprintf("%s <= ?", col))
			args = append(args, cond.Value)
		case store.OpNotNull:
			conditions = append(conditions, fmt.Sprintf("%s IS NOT NULL", col))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", cond.Op)
		}
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func scanRecordRows(rows *sql.Rows) ([]store.FinancialRecord, error) {
	records := make([]store.FinancialRecord, 0)
	for rows.Next() {
		var (
			id         string
			docType    sql.NullString
			vendor     sql.NullString
			category   sql.NullString
			total      float64
			qty, price sql.NullFloat64
			date       time.Time
			sourceFile sql.NullString
		)
		if err := rows.Scan(&id, &docType, &vendor, &category, &total, &qty, &price, &date, &sourceFile); err != nil {
			return nil, err
		}
		records = append(records, store.FinancialRecord{
			ID:           id,
			DocumentType: docType.String,
			Vendor:       vendor.String,
			Category:     category.String,
			Total:        total,
			Quantity:     nullableValue(qty),
			UnitPrice:    nullableValue(price),
			Date:         date,
			SourceFile:   sourceFile.String,
		})
	}
	return records, rows.Err()
}

func scanGroupedRows(rows *sql.Rows, group *store.GroupStage) ([]store.GroupedRow, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	keyNames := make(map[string]bool, len(group.Keys))
	for _, key := range group.Keys {
		keyNames[key.Name] = true
	}

	out := make([]store.GroupedRow, 0)
	for rows.Next() {
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := store.GroupedRow{
			Keys:   make(map[string]any, len(group.Keys)),
			Values: make(map[string]float64, len(group.Accumulators)),
		}
		for i, col := range cols {
			v := *(dest[i].(*any))
			if keyNames[col] {
				row.Keys[col] = v
			} else {
				row.Values[col] = toFloat(v)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableValue(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
