// Package source supplies rows of source tables to the runtime. A Source
// can be opened any number of times; each Iterator walks the table once.
package source
