// Package compiler validates a job graph and turns it into an execution
// plan: a dependency-respecting order of components, grouped into one chain
// per source table.
//
// Dependencies come from two places. A component that requires a filter
// outcome runs after that filter, and a component that reads a virtual
// column runs after the transformer producing it. Cycles among these
// dependencies are configuration errors and are rejected before any row is
// read.
package compiler
