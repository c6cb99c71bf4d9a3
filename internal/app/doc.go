// Package app wires the engine together for one job run: it loads the job
// files, builds and compiles the job graph, runs it locally or partitioned,
// and reports progress through listeners and an optional status server. It
// is decoupled from any specific entrypoint like a CLI.
package app
