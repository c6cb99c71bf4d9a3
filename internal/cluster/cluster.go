package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
	"golang.org/x/sync/errgroup"
)

// Partition is a sub-job over a contiguous row range of every table.
type Partition struct {
	Index  int
	Graph  *job.Graph
	Offset int64
	Limit  int64
}

// PartitionResult is what a manager returns for one partition.
type PartitionResult struct {
	Partition Partition
	// Results holds the results of successful components by name.
	Results map[string]component.Result
	// Failed names components that failed in this partition.
	Failed []string
	Errors []error
}

// Manager executes partitions, locally or on remote workers.
type Manager interface {
	Dispatch(ctx context.Context, p Partition) (*PartitionResult, error)
}

// Result is the merged outcome of a partitioned run.
type Result struct {
	Results    map[string]component.Result
	Errors     []error
	Partitions int
}

// IsSuccessful reports whether every partition succeeded.
func (r *Result) IsSuccessful() bool { return len(r.Errors) == 0 }

// Split divides [0,total) into n contiguous ranges of near-equal size. It
// never returns empty ranges, except that an empty input yields the single
// range [0,0) so components still report their zero results.
func Split(total int64, n int) []Partition {
	if total <= 0 {
		return []Partition{{Index: 0}}
	}
	if n < 1 {
		n = 1
	}
	if int64(n) > total {
		n = int(total)
	}
	size, rest := total/int64(n), total%int64(n)
	parts := make([]Partition, 0, n)
	var offset int64
	for i := 0; i < n; i++ {
		limit := size
		if int64(i) < rest {
			limit++
		}
		parts = append(parts, Partition{Index: i, Offset: offset, Limit: limit})
		offset += limit
	}
	return parts
}

// Run splits the job into partitions, dispatches them concurrently and
// merges their results in partition order.
func Run(ctx context.Context, mgr Manager, g *job.Graph, totalRows int64, partitions int) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("job", g.Name())
	parts := Split(totalRows, partitions)
	results := make([]*PartitionResult, len(parts))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range parts {
		p.Graph = g
		eg.Go(func() error {
			logger.Debug("Dispatching partition.", "partition", p.Index, "offset", p.Offset, "limit", p.Limit)
			res, err := mgr.Dispatch(egCtx, p)
			if err != nil {
				return fmt.Errorf("partition %d: %w", p.Index, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &Result{Results: make(map[string]component.Result), Partitions: len(parts)}
	failed := make(map[string]bool)
	for _, res := range results {
		out.Errors = append(out.Errors, res.Errors...)
		for _, name := range res.Failed {
			failed[name] = true
		}
	}
	for _, c := range g.Components() {
		name := c.Name()
		if failed[name] {
			continue
		}
		var merged component.Result
		present := false
		for _, res := range results {
			r, ok := res.Results[name]
			if !ok {
				continue
			}
			present = true
			var err error
			if merged, err = component.Merge(merged, r); err != nil {
				out.Errors = append(out.Errors, fmt.Errorf("merge %s: %w", name, err))
				present = false
				break
			}
		}
		if present {
			out.Results[name] = merged
		}
	}
	logger.Info("Merged partition results.", "partitions", len(parts), "results", len(out.Results), "errors", len(out.Errors))
	return out, nil
}

// Err joins the partition errors.
func (r *Result) Err() error { return errors.Join(r.Errors...) }
