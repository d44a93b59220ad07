// Package process provides a sandbox adapter that runs an agent module as an
// external process: input on stdin, output on stdout, bounded by a deadline
// and an output size cap.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/korralabs/korra/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

const (
	defaultTimeoutMs = 5000
	// 100 * 64KiB pages.
	defaultMaxOutputBytes = 6553600
)

// ErrTimeout is wrapped into the execution error when the module exceeds its
// deadline.
var ErrTimeout = errors.New("module execution timed out")

// options are the sandbox-specific keys of the flat agent config. Unknown
// keys are ignored; the agent config is passed through opaquely.
type options struct {
	ModulePath     string `mapstructure:"module_path"`
	TimeoutMs      int    `mapstructure:"timeout_ms"`
	MaxOutputBytes int    `mapstructure:"max_output_bytes"`
}

// Sandbox implements ports.Sandbox by executing a module binary.
type Sandbox struct {
	modulePath     string
	timeout        time.Duration
	maxOutputBytes int
}

// New builds a sandbox from the flat agent config. The module named by
// "module_path" must exist at construction time.
func New(config map[string]string) (*Sandbox, error) {
	var opts options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("invalid sandbox config: %w", err)
	}

	if opts.ModulePath == "" {
		return nil, errors.New("missing module_path in config")
	}
	if _, err := os.Stat(opts.ModulePath); err != nil {
		return nil, fmt.Errorf("module not found: %w", err)
	}
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = defaultTimeoutMs
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutputBytes
	}

	return &Sandbox{
		modulePath:     opts.ModulePath,
		timeout:        time.Duration(opts.TimeoutMs) * time.Millisecond,
		maxOutputBytes: opts.MaxOutputBytes,
	}, nil
}

// Execute runs the module with the execution input on stdin and returns its
// stdout. The agent identity and type are exposed to the module through the
// environment.
func (s *Sandbox) Execute(ctx context.Context, ec ports.ExecutionContext) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.modulePath)
	cmd.Stdin = bytes.NewReader(ec.Input)
	cmd.Env = append(os.Environ(),
		"KORRA_AGENT_ID="+ec.AgentID,
		"KORRA_AGENT_TYPE="+ec.AgentType.String(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("module failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("module failed: %w", err)
	}

	if stdout.Len() > s.maxOutputBytes {
		return nil, fmt.Errorf("module output %d bytes exceeds limit %d", stdout.Len(), s.maxOutputBytes)
	}
	return stdout.Bytes(), nil
}

// Timeout returns the advertised execution bound.
func (s *Sandbox) Timeout() time.Duration {
	return s.timeout
}

// ModulePath returns the executable backing this sandbox.
func (s *Sandbox) ModulePath() string {
	return s.modulePath
}
