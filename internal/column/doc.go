// Package column defines the value slots of the engine and the rows that
// carry values for them.
//
// A Column is either physical (read from a source table) or virtual
// (produced mid-pipeline by a transformer). A Row maps columns to values for
// one logical record. DerivedRow layers new values over a parent row without
// mutating it, which is how transformer output becomes visible to the
// consumers that run after the transformer on the same row.
package column
