package listener

import (
	"context"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
)

// Log writes run events to the logger carried by the context.
type Log struct{}

func (Log) JobBegin(ctx context.Context, g *job.Graph) {
	ctxlog.FromContext(ctx).Info("Job started.", "job", g.Name(), "components", len(g.Components()), "tables", len(g.Tables()))
}

func (Log) JobSuccess(ctx context.Context, g *job.Graph) {
	ctxlog.FromContext(ctx).Info("Job finished successfully.", "job", g.Name())
}

func (Log) JobFailed(ctx context.Context, g *job.Graph, err error) {
	ctxlog.FromContext(ctx).Error("Job failed.", "job", g.Name(), "error", err)
}

func (Log) RowProgress(ctx context.Context, g *job.Graph, table string, rows int64) {
	ctxlog.FromContext(ctx).Info("Processing rows.", "job", g.Name(), "table", table, "rows", rows)
}

func (Log) ComponentSuccess(ctx context.Context, c *job.Component, result component.Result) {
	ctxlog.FromContext(ctx).Debug("Component produced result.", "component", c.String(), "result", result)
}

func (Log) ComponentError(ctx context.Context, c *job.Component, row column.Row, err error) {
	logger := ctxlog.FromContext(ctx).With("component", c.String())
	if row != nil {
		logger = logger.With("row", row.ID())
	}
	logger.Error("Component failed.", "error", err)
}
