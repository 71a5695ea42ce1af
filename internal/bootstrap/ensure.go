// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"shed-cli/internal/runner"
	"shed-cli/pkg/shedfile"
)

// EnsureResult is the outcome of ensuring an extension is installed.
type EnsureResult int

const (
	// EnsureFailed means neither the probe nor the install succeeded.
	// It is the zero value, so an EnsureResult is pessimistic until a
	// flow proves otherwise.
	EnsureFailed EnsureResult = iota
	// EnsureAlreadyPresent means the probe succeeded and nothing ran.
	EnsureAlreadyPresent
	// EnsureInstalled means the probe failed and the install succeeded.
	EnsureInstalled
)

// String returns a human-readable form of the result.
func (r EnsureResult) String() string {
	switch r {
	case EnsureAlreadyPresent:
		return "already-present"
	case EnsureInstalled:
		return "installed"
	case EnsureFailed:
		return "failed"
	default:
		return fmt.Sprintf("EnsureResult(%d)", int(r))
	}
}

// Installer ensures auxiliary CLI extensions are present.
type Installer interface {
	EnsureInstalled(ctx context.Context, ext shedfile.Extension) (EnsureResult, error)
}

// ProbeInstaller implements the probe-then-install pattern: run the
// probe argv, and only when it fails run the install argv. Both
// commands run with their output streams discarded, so bootstrap stays
// quiet when everything is already in place.
type ProbeInstaller struct {
	runner runner.Runner
	logger *log.Logger
	env    []string
}

var _ Installer = (*ProbeInstaller)(nil)

// InstallerOption configures a ProbeInstaller.
type InstallerOption func(*ProbeInstaller)

// WithInstallerLogger sets the logger.
func WithInstallerLogger(logger *log.Logger) InstallerOption {
	return func(i *ProbeInstaller) { i.logger = logger }
}

// WithInstallerEnv sets the environment probes and installs run with,
// typically the composed session environment so freshly provisioned
// tools are on PATH.
func WithInstallerEnv(env []string) InstallerOption {
	return func(i *ProbeInstaller) { i.env = env }
}

// NewProbeInstaller creates a ProbeInstaller running commands through r.
func NewProbeInstaller(r runner.Runner, opts ...InstallerOption) *ProbeInstaller {
	i := &ProbeInstaller{
		runner: r,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "bootstrap"}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// EnsureInstalled probes for ext and installs it when the probe fails.
// A probe that cannot even start (missing binary) counts as "not
// present", not as an error.
func (i *ProbeInstaller) EnsureInstalled(ctx context.Context, ext shedfile.Extension) (EnsureResult, error) {
	if err := ctx.Err(); err != nil {
		return EnsureFailed, err
	}
	if len(ext.Probe) == 0 {
		return EnsureFailed, fmt.Errorf("extension %s: %w", ext.Name, errors.New("probe argv is empty"))
	}

	probe := i.runner.Run(ctx, runner.Spec{
		Argv:   ext.Probe,
		Env:    i.env,
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	if probe.Success() {
		i.logger.Debug("extension already present", "extension", ext.Name)
		return EnsureAlreadyPresent, nil
	}

	if len(ext.Install) == 0 {
		return EnsureFailed, fmt.Errorf("extension %s: probe failed and no install command is declared", ext.Name)
	}

	i.logger.Info("installing extension", "extension", ext.Name)
	install := i.runner.Run(ctx, runner.Spec{
		Argv:   ext.Install,
		Env:    i.env,
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	if install.Err != nil {
		return EnsureFailed, fmt.Errorf("installing extension %s: %w", ext.Name, install.Err)
	}
	if !install.ExitCode.IsSuccess() {
		return EnsureFailed, fmt.Errorf("installing extension %s: exit status %s", ext.Name, install.ExitCode)
	}
	return EnsureInstalled, nil
}
