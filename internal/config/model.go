package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of one job: engine settings, the
// source tables it reads, and the component jobs it runs.
type Model struct {
	Name       string
	Engine     Engine
	Sources    []*Source
	Components []*Component
}

// Engine holds run settings. Zero values mean "use the default".
type Engine struct {
	Workers          int
	QueueSize        int
	ProgressInterval int64
	Storage          string
	StoragePath      string
	Partitions       int
}

// Source kinds understood by the builder.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// Source is the format-agnostic representation of a `source` block.
type Source struct {
	Kind        string
	Table       string
	Path        string
	Query       string
	CountColumn string
	Delimiter   string
	Columns     []*Column
}

// Column declares one physical column of a source table.
type Column struct {
	Name string
	Type cty.Type
}

// Component is the format-agnostic representation of a `component` block.
//
// Inputs reference either a physical column as "table.column" or a
// transformer output as "component.output". Requirements reference a filter
// outcome as "filter.CATEGORY".
type Component struct {
	Descriptor  string
	Name        string
	Inputs      []string
	Requires    string
	RequiresAny []string
	Tables      []string
	Arguments   hcl.Body
}
