// Package runtime drives source rows through a compiled plan.
//
// Each chain pulls its rows sequentially. For every row, consumers whose
// predecessors have completed for that row are dispatched: concurrent
// consumers through the task runner, serial ones on the dispatching
// goroutine with calls to the instance serialized. A consumer's requirement
// is checked only once everything it depends on has finished for the row,
// so outcome-gated work never races the filter deciding it.
//
// Per-row state (the outcome set and the derived-row overlay) lives only as
// long as the row's consumers and is never shared across rows.
package runtime
