package store

// Pipeline describes an ordered aggregation over financial records:
// an optional match filter, a group stage with accumulators, sorting
// and an optional row limit. Stages are applied in that order.
type Pipeline struct {
	Match Filter
	Group *GroupStage
	Sort  []SortField
	Limit int
}

type CompareOp string

const (
	OpEq      CompareOp = "eq"
	OpGte     CompareOp = "gte"
	OpLte     CompareOp = "lte"
	OpNotNull CompareOp = "not_null"
)

type Condition struct {
	Field string
	Op    CompareOp
	Value any
}

type Filter []Condition

func (f Filter) Eq(field string, value any) Filter {
	return append(f, Condition{Field: field, Op: OpEq, Value: value})
}

func (f Filter) Gte(field string, value any) Filter {
	return append(f, Condition{Field: field, Op: OpGte, Value: value})
}

func (f Filter) Lte(field string, value any) Filter {
	return append(f, Condition{Field: field, Op: OpLte, Value: value})
}

func (f Filter) NotNull(field string) Filter {
	return append(f, Condition{Field: field, Op: OpNotNull})
}

// GroupKey names one component of the composite group key. When DatePart
// is set the key is a calendar part (year, month, day, week, quarter)
// extracted from Field; otherwise the key is the raw Field value.
type GroupKey struct {
	Name     string
	Field    string
	DatePart string
}

type AccumOp string

const (
	AccumSum   AccumOp = "sum"
	AccumAvg   AccumOp = "avg"
	AccumMin   AccumOp = "min"
	AccumMax   AccumOp = "max"
	AccumCount AccumOp = "count"
)

// Accumulator computes one aggregate value per group. Field is ignored
// for AccumCount.
type Accumulator struct {
	Name  string
	Op    AccumOp
	Field string
}

type GroupStage struct {
	Keys         []GroupKey
	Accumulators []Accumulator
}

type SortField struct {
	Name string
	Desc bool
}

// FindOptions shape plain Find queries: ordering and pagination only,
// no grouping.
type FindOptions struct {
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// GroupedRow is one output row of a grouped aggregation. Keys holds the
// group key components (calendar parts as int, fields as string),
// Values the accumulator outputs.
type GroupedRow struct {
	Keys   map[string]any
	Values map[string]float64
}

// IntKey returns the named key component as an int. Calendar parts come
// back from the store as integers; missing keys read as 0.
func (r GroupedRow) IntKey(name string) int {
	switch v := r.Keys[name].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// StringKey returns the named key component as a string, or "" when absent.
func (r GroupedRow) StringKey(name string) string {
	s, _ := r.Keys[name].(string)
	return s
}
