package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

func TestMapRow(t *testing.T) {
	amount := NewPhysical("orders", "amount", cty.Number)
	name := NewPhysical("orders", "name", cty.String)
	missing := NewPhysical("orders", "missing", cty.String)

	r := NewRow(7, 0, map[*Column]any{amount: 10.0, name: nil})

	assert.Equal(t, int64(7), r.ID())
	assert.Equal(t, 1, r.DistinctCount(), "distinct count is at least one")

	v, ok := r.Value(amount)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = r.Value(name)
	assert.True(t, ok, "a present null is still a value")
	assert.Nil(t, v)

	_, ok = r.Value(missing)
	assert.False(t, ok)

	_, ok = r.Value(nil)
	assert.False(t, ok)

	assert.Equal(t, []any{10.0, nil, nil}, Values(r, []*Column{amount, name, missing}))
}

func TestDerivedRow(t *testing.T) {
	amount := NewPhysical("orders", "amount", cty.Number)
	doubled := NewVirtual("orders", "doubled", cty.Number)
	label := NewVirtual("orders", "label", cty.String)

	base := NewRow(1, 3, map[*Column]any{amount: 5.0})

	t.Run("empty overlay returns parent", func(t *testing.T) {
		assert.Same(t, base, Derive(base, nil))
	})

	t.Run("overlay first then parent chain", func(t *testing.T) {
		d1 := Derive(base, map[*Column]any{doubled: 10.0})
		d2 := Derive(d1, map[*Column]any{label: "ten", amount: 99.0})

		v, ok := d2.Value(label)
		assert.True(t, ok)
		assert.Equal(t, "ten", v)

		v, ok = d2.Value(doubled)
		assert.True(t, ok)
		assert.Equal(t, 10.0, v)

		v, _ = d2.Value(amount)
		assert.Equal(t, 99.0, v, "overlay shadows parent")

		v, _ = d1.Value(amount)
		assert.Equal(t, 5.0, v, "parent layers are untouched")

		_, ok = base.Value(doubled)
		assert.False(t, ok, "base row never sees derived values")

		assert.Equal(t, int64(1), d2.ID())
		assert.Equal(t, 3, d2.DistinctCount())
	})
}
