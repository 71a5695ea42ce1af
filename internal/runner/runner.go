// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Spec describes a single invocation. Exactly one of Argv (for
	// ExecRunner) or Script (for ShellRunner) carries the work.
	Spec struct {
		// Argv is the program and its arguments.
		Argv []string
		// Script is shell source evaluated by the embedded interpreter.
		Script string
		// Dir is the working directory. Empty means the current one.
		Dir string
		// Env is the complete environment in KEY=value form. Nil means
		// inherit the parent process environment.
		Env []string

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of running a Spec. ExitCode carries the
	// process status; Err is set only when the command could not be
	// run at all (bad spec, missing program, cancelled context).
	Result struct {
		ExitCode ExitCode
		Err      error
	}
)

// Success reports whether the command ran and exited zero.
func (r Result) Success() bool { return r.Err == nil && r.ExitCode.IsSuccess() }

// Runner executes command specs.
type Runner interface {
	Run(ctx context.Context, spec Spec) Result
}

// ExecRunner runs specs as real processes.
type ExecRunner struct{}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

// Run executes spec.Argv and maps the process status to a Result. A
// process that started but exited non-zero yields that exit code with a
// nil Err; a process that never started yields Err.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) Result {
	if len(spec.Argv) == 0 {
		return Result{ExitCode: 1, Err: errors.New("spec has no argv")}
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return Result{ExitCode: ExitCode(exitErr.ExitCode())}
		}
		return Result{ExitCode: 1, Err: fmt.Errorf("running %s: %w", spec.Argv[0], err)}
	}
	return Result{}
}

// ShellRunner evaluates spec.Script with an embedded POSIX shell.
type ShellRunner struct{}

var _ Runner = (*ShellRunner)(nil)

// NewShellRunner creates a ShellRunner.
func NewShellRunner() *ShellRunner { return &ShellRunner{} }

// Run parses and evaluates spec.Script. Script exit statuses become
// the Result's ExitCode; parse failures and interpreter errors set Err.
func (r *ShellRunner) Run(ctx context.Context, spec Spec) Result {
	if strings.TrimSpace(spec.Script) == "" {
		return Result{ExitCode: 1, Err: errors.New("spec has no script")}
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(spec.Script), "script")
	if err != nil {
		return Result{ExitCode: 1, Err: fmt.Errorf("parsing script: %w", err)}
	}

	env := spec.Env
	if env == nil {
		env = os.Environ()
	}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(spec.Stdin, spec.Stdout, spec.Stderr),
	}
	if spec.Dir != "" {
		opts = append(opts, interp.Dir(spec.Dir))
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return Result{ExitCode: 1, Err: fmt.Errorf("creating interpreter: %w", err)}
	}

	if err := sh.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return Result{ExitCode: ExitCode(status)}
		}
		return Result{ExitCode: 1, Err: fmt.Errorf("running script: %w", err)}
	}
	return Result{}
}
