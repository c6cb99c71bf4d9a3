package column

// DerivedRow wraps a parent row and adds values without touching it. Each
// derived row is immutable once built; adding more values means deriving
// again.
type DerivedRow struct {
	parent  Row
	overlay map[string]any
}

// Derive layers values over parent. An empty value set returns the parent
// unchanged.
func Derive(parent Row, values map[*Column]any) Row {
	if len(values) == 0 {
		return parent
	}
	overlay := make(map[string]any, len(values))
	for c, v := range values {
		overlay[c.Key()] = v
	}
	return &DerivedRow{parent: parent, overlay: overlay}
}

func (r *DerivedRow) ID() int64          { return r.parent.ID() }
func (r *DerivedRow) DistinctCount() int { return r.parent.DistinctCount() }

// Parent returns the wrapped row.
func (r *DerivedRow) Parent() Row { return r.parent }

func (r *DerivedRow) Value(c *Column) (any, bool) {
	if c == nil {
		return nil, false
	}
	var cur Row = r
	for {
		d, ok := cur.(*DerivedRow)
		if !ok {
			return cur.Value(c)
		}
		if v, ok := d.overlay[c.Key()]; ok {
			return v, true
		}
		cur = d.parent
	}
}
