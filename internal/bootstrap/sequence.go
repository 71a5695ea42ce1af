// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"shed-cli/pkg/shedfile"
)

// ActionError reports which bootstrap action failed. The sequence stops
// at the first one, so a session error always names a single action.
type ActionError struct {
	Action string
	Err    error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ActionError) Unwrap() error { return e.Err }

// Sequence runs the bootstrap actions in their fixed order: default
// channel, then targets, then components, then extensions.
type Sequence struct {
	toolchain Toolchain
	installer Installer
	logger    *log.Logger
}

// SequenceOption configures a Sequence.
type SequenceOption func(*Sequence)

// WithSequenceLogger sets the logger.
func WithSequenceLogger(logger *log.Logger) SequenceOption {
	return func(s *Sequence) { s.logger = logger }
}

// NewSequence creates a Sequence using the given toolchain and installer.
func NewSequence(toolchain Toolchain, installer Installer, opts ...SequenceOption) *Sequence {
	s := &Sequence{
		toolchain: toolchain,
		installer: installer,
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "bootstrap"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run applies every bootstrap action. The first failure aborts the
// sequence and later actions never run. A nil toolchain config skips
// the toolchain actions; an empty extension list skips the installer.
func (s *Sequence) Run(ctx context.Context, tc *shedfile.ToolchainConfig, exts []shedfile.Extension) error {
	if tc != nil {
		if !s.toolchain.Available() {
			return &ActionError{Action: "toolchain bootstrap", Err: errors.New("toolchain manager is not available on PATH")}
		}
		if tc.Channel != "" {
			if err := s.toolchain.SetDefaultChannel(ctx, tc.Channel); err != nil {
				return &ActionError{Action: fmt.Sprintf("selecting default channel %s", tc.Channel), Err: err}
			}
		}
		for _, target := range tc.Targets {
			if err := s.toolchain.AddTarget(ctx, target); err != nil {
				return &ActionError{Action: fmt.Sprintf("registering target %s", target), Err: err}
			}
		}
		for _, component := range tc.Components {
			if err := s.toolchain.AddComponent(ctx, component); err != nil {
				return &ActionError{Action: fmt.Sprintf("registering component %s", component), Err: err}
			}
		}
	}

	for _, ext := range exts {
		result, err := s.installer.EnsureInstalled(ctx, ext)
		if err != nil {
			return &ActionError{Action: fmt.Sprintf("ensuring extension %s", ext.Name), Err: err}
		}
		if result == EnsureFailed {
			return &ActionError{Action: fmt.Sprintf("ensuring extension %s", ext.Name), Err: errors.New("install failed")}
		}
		if result == EnsureInstalled {
			s.logger.Info("installed extension", "extension", ext.Name)
		} else {
			s.logger.Debug("extension already present", "extension", ext.Name)
		}
	}
	return nil
}
