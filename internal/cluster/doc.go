// Package cluster splits a job into row-range partitions, dispatches them to
// a Manager and merges the partition results. Results must be Mergeable;
// partitions may finish in any order.
package cluster
