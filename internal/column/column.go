package column

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// Origin distinguishes columns read from a source from columns produced by a
// transformer.
type Origin int

const (
	// Physical columns come from a source table.
	Physical Origin = iota
	// Virtual columns are produced by a transformer during processing.
	Virtual
)

func (o Origin) String() string {
	switch o {
	case Physical:
		return "physical"
	case Virtual:
		return "virtual"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Column is a handle to a value slot in a row. Columns are created once and
// shared by reference; the job graph owns them.
type Column struct {
	key      string
	table    string
	origin   Origin
	dataType cty.Type

	mu   sync.RWMutex
	name string
}

// NewPhysical creates a handle for a column of a source table. Two physical
// columns with the same table and name share the same Key.
func NewPhysical(table, name string, dataType cty.Type) *Column {
	if dataType == cty.NilType {
		dataType = cty.DynamicPseudoType
	}
	return &Column{
		key:      table + "." + name,
		table:    table,
		origin:   Physical,
		dataType: dataType,
		name:     name,
	}
}

// NewVirtual creates a column produced by a transformer. The column belongs
// to the same table as the rows the transformer runs on.
func NewVirtual(table, name string, dataType cty.Type) *Column {
	if dataType == cty.NilType {
		dataType = cty.DynamicPseudoType
	}
	return &Column{
		key:      "virtual:" + uuid.NewString(),
		table:    table,
		origin:   Virtual,
		dataType: dataType,
		name:     name,
	}
}

// Key is the stable identity of the column used for row lookups.
func (c *Column) Key() string { return c.key }

// Table is the originating source table.
func (c *Column) Table() string { return c.table }

// Origin reports whether the column is physical or virtual.
func (c *Column) Origin() Origin { return c.origin }

// IsVirtual is shorthand for Origin() == Virtual.
func (c *Column) IsVirtual() bool { return c.origin == Virtual }

// DataType is the declared type family of the column's values.
func (c *Column) DataType() cty.Type { return c.dataType }

// Name returns the display name.
func (c *Column) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName changes the display name of a virtual column. Physical column
// names are part of their identity and cannot be changed.
func (c *Column) SetName(name string) error {
	if c.origin == Physical {
		return fmt.Errorf("cannot rename physical column %q", c.key)
	}
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
	return nil
}

// String renders the column for logs.
func (c *Column) String() string {
	if c.origin == Physical {
		return c.key
	}
	return fmt.Sprintf("%s.%s(%s)", c.table, c.Name(), c.key)
}

// TypeName returns the friendly name of the declared type family.
func (c *Column) TypeName() string {
	if c.dataType == cty.DynamicPseudoType {
		return "any"
	}
	return c.dataType.FriendlyName()
}
