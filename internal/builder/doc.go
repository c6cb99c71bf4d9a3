/*
Package builder is the bridge between the static configuration model (the
config package) and the engine. It resolves every component block against the
descriptor registry, turns column and outcome references into job-graph
links, decodes component arguments, and builds the source of every declared
table.

The result is a *Job holding a built job.Graph and its sources, ready for the
compiler.
*/
package builder
