package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultCommand is the control binary on Debian-family systems.
const DefaultCommand = "apache2ctl"

// RunFunc starts a command and returns its standard output once it exits.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Runner queries the control binary for the server's runtime state.
type Runner struct {
	cmd    string
	run    RunFunc
	logger *slog.Logger
}

// Option is a functional option for configuring a Runner.
type Option func(*Runner)

// WithRunFunc substitutes the subprocess launcher, mainly so tests can feed
// canned reports without a server binary.
func WithRunFunc(run RunFunc) Option {
	return func(r *Runner) {
		if run != nil {
			r.run = run
		}
	}
}

// WithLogger configures structured logging for command failures.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner returns a Runner for the given control binary. An empty cmd
// falls back to DefaultCommand.
func NewRunner(cmd string, opts ...Option) *Runner {
	r := &Runner{
		cmd:    cmd,
		run:    runCommand,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if r.cmd == "" {
		r.cmd = DefaultCommand
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Defines queries the server for its runtime variable table.
func (r *Runner) Defines(ctx context.Context) (map[string]string, error) {
	report, err := r.query(ctx, "DUMP_RUN_CFG")
	if err != nil {
		return nil, err
	}
	return ParseDefines(report)
}

// Modules queries the server for the names of its loaded modules.
func (r *Runner) Modules(ctx context.Context) ([]string, error) {
	report, err := r.query(ctx, "DUMP_MODULES")
	if err != nil {
		return nil, err
	}
	return ParseModules(report), nil
}

// Includes queries the server for the configuration files it reads.
func (r *Runner) Includes(ctx context.Context) ([]string, error) {
	report, err := r.query(ctx, "DUMP_INCLUDES")
	if err != nil {
		return nil, err
	}
	return ParseIncludes(report), nil
}

func (r *Runner) query(ctx context.Context, flag string) (string, error) {
	out, err := r.run(ctx, r.cmd, "-t", "-D", flag)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Error("control command failed",
				slog.String("command", r.cmd),
				slog.String("flag", flag),
				slog.String("stderr", strings.TrimSpace(string(exitErr.Stderr))))
		}
		return "", errors.Join(ErrRunFailed, fmt.Errorf("%s -t -D %s: %w", r.cmd, flag, err))
	}
	return string(out), nil
}
