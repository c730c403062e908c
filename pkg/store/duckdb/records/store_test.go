package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ledger-atlas/pkg/models/store"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{db: db, store: s}
}

func testRecord(id, vendor, docType string, total float64, date time.Time) store.FinancialRecord {
	return store.FinancialRecord{
		ID:           id,
		DocumentType: docType,
		Vendor:       vendor,
		Category:     "supplies",
		Total:        total,
		Date:         date,
		SourceFile:   id + ".json",
		Metadata:     map[string]string{"origin": "test"},
	}
}

func seedRecords(t *testing.T, f *fixture) {
	qty := 3.0
	price := 25.0
	records := []store.FinancialRecord{
		testRecord("rec-1", "Acme Corp", "invoice", 100, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		testRecord("rec-2", "Acme Corp", "invoice", 200, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)),
		testRecord("rec-3", "Globex", "receipt", 50, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)),
		testRecord("rec-4", "Globex", "invoice", 300, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	}
	records[0].Quantity = &qty
	records[0].UnitPrice = &price

	require.NoError(t, f.store.Add(context.Background(), records))
}

func TestRecordStore_Add(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("success - add and read back", func(t *testing.T) {
		seedRecords(t, f)

		found, err := f.store.Find(ctx, nil, store.FindOptions{SortBy: "date"})
		require.NoError(t, err)
		require.Len(t, found, 4)

		assert.Equal(t, "rec-1", found[0].ID)
		assert.Equal(t, "Acme Corp", found[0].Vendor)
		assert.Equal(t, 100.0, found[0].Total)
		require.NotNil(t, found[0].Quantity)
		assert.Equal(t, 3.0, *found[0].Quantity)
		assert.Nil(t, found[1].Quantity)
	})

	t.Run("success - empty batch", func(t *testing.T) {
		require.NoError(t, f.store.Add(ctx, nil))
	})

	t.Run("error - duplicate id", func(t *testing.T) {
		record := testRecord("rec-1", "Acme Corp", "invoice", 10, time.Now().UTC())
		err := f.store.Add(ctx, []store.FinancialRecord{record})
		assert.Error(t, err)
	})
}

func TestRecordStore_Find(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedRecords(t, f)

	t.Run("filter by vendor", func(t *testing.T) {
		found, err := f.store.Find(ctx, store.Filter{}.Eq("vendor", "Globex"), store.FindOptions{})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("filter by date range", func(t *testing.T) {
		filter := store.Filter{}.
			Gte("date", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)).
			Lte("date", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

		found, err := f.store.Find(ctx, filter, store.FindOptions{})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("sort descending with limit and offset", func(t *testing.T) {
		found, err := f.store.Find(ctx, nil, store.FindOptions{
			SortBy:   "total",
			SortDesc: true,
			Limit:    2,
			Offset:   1,
		})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, 200.0, found[0].Total)
		assert.Equal(t, 100.0, found[1].Total)
	})

	t.Run("not null filter", func(t *testing.T) {
		found, err := f.store.Find(ctx, store.Filter{}.NotNull("quantity"), store.FindOptions{})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "rec-1", found[0].ID)
	})

	t.Run("error - unknown field", func(t *testing.T) {
		_, err := f.store.Find(ctx, store.Filter{}.Eq("discount", 1), store.FindOptions{})
		assert.Error(t, err)
	})

	t.Run("error - unknown sort column", func(t *testing.T) {
		_, err := f.store.Find(ctx, nil, store.FindOptions{SortBy: "discount"})
		assert.Error(t, err)
	})
}

func TestRecordStore_Count(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedRecords(t, f)

	count, err := f.store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	count, err = f.store.Count(ctx, store.Filter{}.Eq("document_type", "invoice"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRecordStore_Aggregate(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedRecords(t, f)

	t.Run("global aggregate without keys", func(t *testing.T) {
		rows, err := f.store.Aggregate(ctx, store.Pipeline{
			Group: &store.GroupStage{
				Accumulators: []store.Accumulator{
					{Name: "total_amount", Op: store.AccumSum, Field: "total"},
					{Name: "count", Op: store.AccumCount},
					{Name: "min_amount", Op: store.AccumMin, Field: "total"},
					{Name: "max_amount", Op: store.AccumMax, Field: "total"},
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 650.0, rows[0].Values["total_amount"])
		assert.Equal(t, 4.0, rows[0].Values["count"])
		assert.Equal(t, 50.0, rows[0].Values["min_amount"])
		assert.Equal(t, 300.0, rows[0].Values["max_amount"])
	})

	t.Run("group by calendar month", func(t *testing.T) {
		rows, err := f.store.Aggregate(ctx, store.Pipeline{
			Group: &store.GroupStage{
				Keys: []store.GroupKey{
					{Name: "year", Field: "date", DatePart: "year"},
					{Name: "month", Field: "date", DatePart: "month"},
				},
				Accumulators: []store.Accumulator{
					{Name: "total", Op: store.AccumSum, Field: "total"},
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, rows, 3)

		byMonth := make(map[int]float64)
		for _, row := range rows {
			assert.Equal(t, 2024, row.IntKey("year"))
			byMonth[row.IntKey("month")] = row.Values["total"]
		}
		assert.Equal(t, 100.0, byMonth[1])
		assert.Equal(t, 250.0, byMonth[2])
		assert.Equal(t, 300.0, byMonth[3])
	})

	t.Run("group by vendor sorted with limit", func(t *testing.T) {
		rows, err := f.store.Aggregate(ctx, store.Pipeline{
			Group: &store.GroupStage{
				Keys: []store.GroupKey{{Name: "vendor", Field: "vendor"}},
				Accumulators: []store.Accumulator{
					{Name: "amount", Op: store.AccumSum, Field: "total"},
				},
			},
			Sort:  []store.SortField{{Name: "amount", Desc: true}},
			Limit: 1,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Globex", rows[0].StringKey("vendor"))
		assert.Equal(t, 350.0, rows[0].Values["amount"])
	})

	t.Run("match stage filters before grouping", func(t *testing.T) {
		rows, err := f.store.Aggregate(ctx, store.Pipeline{
			Match: store.Filter{}.Eq("document_type", "invoice"),
			Group: &store.GroupStage{
				Accumulators: []store.Accumulator{
					{Name: "count", Op: store.AccumCount},
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 3.0, rows[0].Values["count"])
	})

	t.Run("error - missing group stage", func(t *testing.T) {
		_, err := f.store.Aggregate(ctx, store.Pipeline{})
		assert.Error(t, err)
	})

	t.Run("error - unsupported date part", func(t *testing.T) {
		_, err := f.store.Aggregate(ctx, store.Pipeline{
			Group: &store.GroupStage{
				Keys: []store.GroupKey{{Name: "hour", Field: "date", DatePart: "hour"}},
				Accumulators: []store.Accumulator{
					{Name: "count", Op: store.AccumCount},
				},
			},
		})
		assert.Error(t, err)
	})

	t.Run("error - sort on unproduced field", func(t *testing.T) {
		_, err := f.store.Aggregate(ctx, store.Pipeline{
			Group: &store.GroupStage{
				Accumulators: []store.Accumulator{
					{Name: "count", Op: store.AccumCount},
				},
			},
			Sort: []store.SortField{{Name: "total", Desc: true}},
		})
		assert.Error(t, err)
	})
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}
