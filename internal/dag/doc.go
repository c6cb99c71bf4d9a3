// Package dag is a small directed graph keyed by string ids. It remembers
// the order in which nodes were added so that a topological order can break
// ties by declaration order, and it reports cycles with the path that
// closes them.
package dag
