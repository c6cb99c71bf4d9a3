package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted by SocketIO.
const (
	EventJobBegin         = "job:begin"
	EventJobSuccess       = "job:success"
	EventJobFailed        = "job:failed"
	EventRowProgress      = "job:progress"
	EventComponentSuccess = "component:success"
	EventComponentError   = "component:error"
)

// Emitter sends an event to a socket.io server.
type Emitter interface {
	Emit(event string, args ...any) error
}

// SocketIO broadcasts run events as socket.io messages.
type SocketIO struct {
	emitter Emitter
	runID   string
}

func NewSocketIO(e Emitter, runID string) *SocketIO {
	return &SocketIO{emitter: e, runID: runID}
}

// Payload builds the message body sent with every event.
func Payload(runID string, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["run_id"] = runID
	out["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	return out
}

func (s *SocketIO) emit(ctx context.Context, event string, fields map[string]any) {
	if err := s.emitter.Emit(event, Payload(s.runID, fields)); err != nil {
		ctxlog.FromContext(ctx).Debug("Failed to emit socket.io event.", "event", event, "error", err)
	}
}

func (s *SocketIO) JobBegin(ctx context.Context, g *job.Graph) {
	s.emit(ctx, EventJobBegin, map[string]any{"job": g.Name()})
}

func (s *SocketIO) JobSuccess(ctx context.Context, g *job.Graph) {
	s.emit(ctx, EventJobSuccess, map[string]any{"job": g.Name()})
}

func (s *SocketIO) JobFailed(ctx context.Context, g *job.Graph, err error) {
	s.emit(ctx, EventJobFailed, map[string]any{"job": g.Name(), "error": err.Error()})
}

func (s *SocketIO) RowProgress(ctx context.Context, g *job.Graph, table string, rows int64) {
	s.emit(ctx, EventRowProgress, map[string]any{"job": g.Name(), "table": table, "rows": rows})
}

func (s *SocketIO) ComponentSuccess(ctx context.Context, c *job.Component, result component.Result) {
	s.emit(ctx, EventComponentSuccess, map[string]any{"component": c.String(), "result": fmt.Sprint(result)})
}

func (s *SocketIO) ComponentError(ctx context.Context, c *job.Component, row column.Row, err error) {
	fields := map[string]any{"component": c.String(), "error": err.Error()}
	if row != nil {
		fields["row"] = row.ID()
	}
	s.emit(ctx, EventComponentError, fields)
}

// DialOptions configures DialSocketIO.
type DialOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// DialSocketIO connects a websocket socket.io client and waits for the
// connect event.
func DialSocketIO(ctx context.Context, o DialOptions) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx).With("url", o.URL)

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to progress server.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", o.Timeout)
	}
}
