// Package builtin registers the components that ship with dqgrid: basic
// filters, transformers, analyzers and a table explorer.
package builtin
