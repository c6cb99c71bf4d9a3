package column

// Row resolves values by column handle for one logical record.
type Row interface {
	// ID is the ordinal of the record in its source.
	ID() int64
	// DistinctCount is the number of physical source rows this logical row
	// stands in for. It is always at least 1.
	DistinctCount() int
	// Value looks up the value of a column. The boolean is false when no
	// layer of the row holds the column; a present nil is a null value.
	Value(c *Column) (any, bool)
}

// MapRow is a row backed by a plain map, used for rows read from sources.
type MapRow struct {
	id     int64
	count  int
	values map[string]any
}

// NewRow builds a row from column values. A distinct count below 1 is
// treated as 1.
func NewRow(id int64, distinctCount int, values map[*Column]any) *MapRow {
	if distinctCount < 1 {
		distinctCount = 1
	}
	m := make(map[string]any, len(values))
	for c, v := range values {
		m[c.Key()] = v
	}
	return &MapRow{id: id, count: distinctCount, values: m}
}

func (r *MapRow) ID() int64          { return r.id }
func (r *MapRow) DistinctCount() int { return r.count }

func (r *MapRow) Value(c *Column) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := r.values[c.Key()]
	return v, ok
}

// Values returns the values of the given columns in order. Missing columns
// yield nil.
func Values(r Row, cols []*Column) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i], _ = r.Value(c)
	}
	return out
}
