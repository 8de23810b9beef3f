package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/aretw0/studioflow/internal/logging"
)

// Runner executes allow-listed local processes, capturing their combined
// output into a log file.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
	logger   *slog.Logger
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Invocation describes one execution of a registered process.
type Invocation struct {
	// Dir overrides the runner's base directory.
	Dir string
	// LogFile receives stdout and stderr; empty discards them.
	LogFile string
	// Args are appended to the registered arguments.
	Args []string
}

// Result is the outcome of a process that started.
type Result struct {
	Name     string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool { return r.ExitCode == 0 }

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(cmds map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range cmds {
			r.registry[name] = RegisteredProcess{Command: c.Command, Args: c.Args, Env: c.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Registered reports whether name is on the allow-list.
func (r *Runner) Registered(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Execute runs the registered process name and waits for it.
// A non-zero exit is reported through Result.ExitCode, not as an error; the
// error covers failures to start, I/O failures and context cancellation.
func (r *Runner) Execute(ctx context.Context, name string, inv Invocation) (Result, error) {
	proc, ok := r.registry[name]
	if !ok {
		return Result{Name: name}, fmt.Errorf("process not registered: %s", name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, append(append([]string(nil), proc.Args...), inv.Args...)...)
	cmd.Dir = r.baseDir
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	cmd.Env = append(cmd.Environ(), envList(proc.Env)...)

	var out io.Writer = io.Discard
	if inv.LogFile != "" {
		f, err := os.Create(inv.LogFile)
		if err != nil {
			return Result{Name: name}, fmt.Errorf("failed to create log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	cmd.Stdout = out
	cmd.Stderr = out

	r.logger.Debug("executing process", "name", name, "command", proc.Command, "dir", cmd.Dir)
	start := time.Now()
	err := cmd.Run()
	res := Result{Name: name, Duration: time.Since(start)}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("execution of %s failed: %w", name, err)
	}
	return res, nil
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return out
}
