package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/ctxlog"
)

// Instance wraps one component instance and its lifecycle state.
type Instance struct {
	name string
	desc *component.Descriptor
	comp component.Component

	mu    sync.Mutex
	state State

	closeOnce sync.Once
	closeErr  error
}

// NewInstance starts tracking a freshly created component.
func NewInstance(name string, d *component.Descriptor, c component.Component) *Instance {
	return &Instance{name: name, desc: d, comp: c, state: Created}
}

func (i *Instance) Name() string                      { return i.name }
func (i *Instance) Descriptor() *component.Descriptor { return i.desc }
func (i *Instance) Component() component.Component    { return i.comp }

// State returns the current state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// advance moves from `from` to `to` after fn succeeds. A failing fn leaves
// the state unchanged, which blocks every later transition.
func (i *Instance) advance(from, to State, fn func() error) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != from {
		return &TransitionError{Instance: i.name, From: i.state, To: to}
	}
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	i.state = to
	return nil
}

// Validate runs the descriptor's validation hooks in declaration order and
// then the component's own Validate.
func (i *Instance) Validate(ctx context.Context) error {
	return i.advance(Created, Validated, func() error {
		if err := i.runHooks(ctx, "validate", i.desc.ValidateHooks); err != nil {
			return err
		}
		if v, ok := i.comp.(component.Validator); ok {
			return v.Validate(ctx)
		}
		return nil
	})
}

// Initialize runs initialization hooks and the component's Initialize.
func (i *Instance) Initialize(ctx context.Context) error {
	return i.advance(Validated, Initialized, func() error {
		if err := i.runHooks(ctx, "initialize", i.desc.InitializeHooks); err != nil {
			return err
		}
		if v, ok := i.comp.(component.Initializer); ok {
			return v.Initialize(ctx)
		}
		return nil
	})
}

// Start marks the instance as receiving rows.
func (i *Instance) Start() error {
	return i.advance(Initialized, Running, nil)
}

// CollectResult fetches the final result. Components without a result yield
// nil. It can succeed only once.
func (i *Instance) CollectResult() (component.Result, error) {
	var res component.Result
	err := i.advance(Running, ResultCollected, func() error {
		r, ok := i.comp.(component.Resulter)
		if !ok {
			return nil
		}
		var err error
		res, err = r.Result()
		return err
	})
	return res, err
}

// Close runs the close hooks and the component's Close exactly once,
// whatever state the instance reached. Later calls return the first error.
func (i *Instance) Close(ctx context.Context) error {
	i.closeOnce.Do(func() {
		i.mu.Lock()
		from := i.state
		i.state = Closed
		i.mu.Unlock()

		ctxlog.FromContext(ctx).Debug("Closing component.", "component", i.name, "from", from)
		hookErr := i.runHooks(ctx, "close", i.desc.CloseHooks)
		var closeErr error
		if c, ok := i.comp.(component.Closer); ok {
			closeErr = c.Close(ctx)
		}
		switch {
		case hookErr != nil:
			i.closeErr = hookErr
		case closeErr != nil:
			i.closeErr = closeErr
		}
	})
	return i.closeErr
}

func (i *Instance) runHooks(ctx context.Context, phase string, hooks []component.Hook) error {
	for _, h := range hooks {
		if h.Fn == nil {
			continue
		}
		if err := h.Fn(ctx, i.comp); err != nil {
			return fmt.Errorf("%s hook %q: %w", phase, h.Name, err)
		}
	}
	return nil
}
