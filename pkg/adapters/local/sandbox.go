// Package local provides an in-process sandbox adapter backed by a plain Go
// function. It is the zero-infrastructure backend used by tests and by
// custom agents whose logic lives in the host program.
package local

import (
	"context"
	"time"

	"github.com/korralabs/korra/pkg/ports"
)

// Func is the execution function wrapped by the sandbox.
type Func func(ctx context.Context, ec ports.ExecutionContext) ([]byte, error)

// Sandbox implements ports.Sandbox over a Go function.
type Sandbox struct {
	fn      Func
	timeout time.Duration
}

// Option configures the sandbox.
type Option func(*Sandbox)

// WithTimeout overrides the advertised execution bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New wraps fn in a sandbox. The default advertised timeout is five seconds.
func New(fn Func, opts ...Option) *Sandbox {
	s := &Sandbox{
		fn:      fn,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Echo returns a Func that writes the input back behind a fixed prefix.
// Deterministic by construction, which makes it useful as a consensus-safe
// placeholder module.
func Echo(prefix string) Func {
	return func(_ context.Context, ec ports.ExecutionContext) ([]byte, error) {
		out := make([]byte, 0, len(prefix)+len(ec.Input))
		out = append(out, prefix...)
		out = append(out, ec.Input...)
		return out, nil
	}
}

// Execute runs the wrapped function under a deadline derived from the
// advertised timeout.
func (s *Sandbox) Execute(ctx context.Context, ec ports.ExecutionContext) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.fn(ctx, ec)
}

// Timeout returns the advertised execution bound.
func (s *Sandbox) Timeout() time.Duration {
	return s.timeout
}
