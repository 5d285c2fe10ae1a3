package form

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"anonymizer/internal/api"
	"anonymizer/internal/logging"
)

// ErrorMessage is the only error text shown to the user.
const ErrorMessage = "Fehler beim Aufruf der API."

// Adapter is the API surface the controller drives.
type Adapter interface {
	Encode(ctx context.Context, in api.TextIn) (api.TextOut, error)
	Decode(ctx context.Context, in api.TextIn) (api.TextOut, error)
}

// State is the display state of the form.
type State struct {
	Input   string
	Output  string
	Busy    bool
	Err     string
	Mapping map[string]string
}

// Controller owns State. Completions are applied under a mutex in arrival
// order; overlapping calls are not coalesced.
type Controller struct {
	adapter      Adapter
	logger       *slog.Logger
	ctx          context.Context
	replaceInput bool

	mu       sync.Mutex
	state    State
	inflight sync.WaitGroup
}

// Option customizes a Controller.
type Option func(*Controller)

// WithReplaceInput makes successful calls replace Input with the result text,
// for single-field forms.
func WithReplaceInput() Option {
	return func(c *Controller) {
		c.replaceInput = true
	}
}

// WithLogger sets the logger that records adapter failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContext sets the context passed to adapter calls.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// New returns an idle controller.
func New(adapter Adapter, opts ...Option) *Controller {
	c := &Controller{
		adapter: adapter,
		logger:  logging.NewNop(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "form")
	return c
}

// SetInput replaces the input text.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.state.Input = text
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Mapping = maps.Clone(c.state.Mapping)
	return s
}

// Encode starts an encode call for the current input. The returned channel
// closes once the result has been applied.
func (c *Controller) Encode() <-chan struct{} {
	return c.run("encode", c.adapter.Encode)
}

// Decode starts a decode call for the current input.
func (c *Controller) Decode() <-chan struct{} {
	return c.run("decode", c.adapter.Decode)
}

// Close waits for in-flight calls to finish.
func (c *Controller) Close() {
	c.inflight.Wait()
}

type call func(ctx context.Context, in api.TextIn) (api.TextOut, error)

func (c *Controller) run(operation string, fn call) <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	input := c.state.Input
	if strings.TrimSpace(input) == "" {
		c.mu.Unlock()
		close(done)
		return done
	}
	c.state.Busy = true
	c.state.Err = ""
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer close(done)

		out, err := fn(c.ctx, api.TextIn{Text: input})

		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.Busy = false
		if err != nil {
			c.state.Err = ErrorMessage
			c.logger.Error("api call failed",
				logging.String(logging.FieldOperation, operation),
				logging.Error(err),
			)
			return
		}
		c.state.Output = out.Text
		c.state.Mapping = maps.Clone(out.Mapping)
		if c.replaceInput {
			c.state.Input = out.Text
		}
	}()
	return done
}
