package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a job file may contain. Anything
// else is rejected.
type fileRoot struct {
	Name       string       `hcl:"name,optional"`
	Engines    []*Engine    `hcl:"engine,block"`
	Sources    []*Source    `hcl:"source,block"`
	Components []*Component `hcl:"component,block"`
}

// Engine represents the `engine` block holding run settings.
type Engine struct {
	Workers          *int    `hcl:"workers,optional"`
	QueueSize        *int    `hcl:"queue_size,optional"`
	ProgressInterval *int64  `hcl:"progress_interval,optional"`
	Storage          *string `hcl:"storage,optional"`
	StoragePath      *string `hcl:"storage_path,optional"`
	Partitions       *int    `hcl:"partitions,optional"`
}

// Source represents a `source "<kind>" "<table>"` block.
type Source struct {
	Kind        string          `hcl:"kind,label"`
	Table       string          `hcl:"table,label"`
	Path        string          `hcl:"path"`
	Query       string          `hcl:"query,optional"`
	CountColumn string          `hcl:"count_column,optional"`
	Delimiter   string          `hcl:"delimiter,optional"`
	Columns     []*ColumnSchema `hcl:"column,block"`
}

// ColumnSchema declares one physical column. Type is an HCL type keyword
// such as `string` or `number`.
type ColumnSchema struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type,optional"`
}

// Arguments captures the raw `arguments` block of a component.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Component represents a `component "<descriptor>" "<name>"` block.
type Component struct {
	Descriptor  string     `hcl:"descriptor,label"`
	Name        string     `hcl:"name,label"`
	Inputs      []string   `hcl:"inputs,optional"`
	Requires    string     `hcl:"requires,optional"`
	RequiresAny []string   `hcl:"requires_any,optional"`
	Tables      []string   `hcl:"tables,optional"`
	Arguments   *Arguments `hcl:"arguments,block"`
}
