// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"

	"shed-cli/internal/runner"
	"shed-cli/pkg/shedfile"
)

// Toolchain manages the language toolchain behind a session. Every
// method must be idempotent: applying the same channel, target, or
// component twice leaves the installation unchanged.
type Toolchain interface {
	SetDefaultChannel(ctx context.Context, channel shedfile.ChannelName) error
	AddTarget(ctx context.Context, target shedfile.TargetName) error
	AddComponent(ctx context.Context, component shedfile.ComponentName) error
	Available() bool
}

// RustupToolchain drives rustup through a Runner. rustup's own
// subcommands are idempotent, which is what makes re-entry safe.
type RustupToolchain struct {
	runner runner.Runner
	logger *log.Logger
	env    []string
	stdout io.Writer
	stderr io.Writer
}

var _ Toolchain = (*RustupToolchain)(nil)

// ToolchainOption configures a RustupToolchain.
type ToolchainOption func(*RustupToolchain)

// WithToolchainLogger sets the logger.
func WithToolchainLogger(logger *log.Logger) ToolchainOption {
	return func(t *RustupToolchain) { t.logger = logger }
}

// WithToolchainEnv sets the environment rustup commands run with,
// typically the composed session environment.
func WithToolchainEnv(env []string) ToolchainOption {
	return func(t *RustupToolchain) { t.env = env }
}

// WithToolchainOutput redirects rustup's output streams.
func WithToolchainOutput(stdout, stderr io.Writer) ToolchainOption {
	return func(t *RustupToolchain) {
		t.stdout = stdout
		t.stderr = stderr
	}
}

// NewRustupToolchain creates a RustupToolchain running commands through r.
func NewRustupToolchain(r runner.Runner, opts ...ToolchainOption) *RustupToolchain {
	t := &RustupToolchain{
		runner: r,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "bootstrap"}),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetDefaultChannel selects the default release channel.
func (t *RustupToolchain) SetDefaultChannel(ctx context.Context, channel shedfile.ChannelName) error {
	t.logger.Debug("selecting default channel", "channel", channel)
	return t.run(ctx, "rustup", "default", string(channel))
}

// AddTarget registers an additional compilation target.
func (t *RustupToolchain) AddTarget(ctx context.Context, target shedfile.TargetName) error {
	t.logger.Debug("registering target", "target", target)
	return t.run(ctx, "rustup", "target", "add", string(target))
}

// AddComponent registers a toolchain component.
func (t *RustupToolchain) AddComponent(ctx context.Context, component shedfile.ComponentName) error {
	t.logger.Debug("registering component", "component", component)
	return t.run(ctx, "rustup", "component", "add", string(component))
}

// Available reports whether rustup can be found on PATH.
func (t *RustupToolchain) Available() bool {
	_, err := exec.LookPath("rustup")
	return err == nil
}

func (t *RustupToolchain) run(ctx context.Context, argv ...string) error {
	res := t.runner.Run(ctx, runner.Spec{
		Argv:   argv,
		Env:    t.env,
		Stdout: t.stdout,
		Stderr: t.stderr,
	})
	if res.Err != nil {
		return res.Err
	}
	if !res.ExitCode.IsSuccess() {
		return fmt.Errorf("%s %s: exit status %s", argv[0], argv[1], res.ExitCode)
	}
	return nil
}
