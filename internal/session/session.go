// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"shed-cli/internal/bootstrap"
	"shed-cli/internal/catalog"
	"shed-cli/internal/config"
	"shed-cli/internal/platform"
	"shed-cli/internal/resolve"
	"shed-cli/internal/runner"
	"shed-cli/internal/searchpath"
	"shed-cli/pkg/shedfile"
)

// ExitError carries the exit status of a handed-over command so the
// command layer can propagate it as the process exit code.
type ExitError struct {
	Code runner.ExitCode
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %s", e.Code)
}

// ArtifactRealizer materializes resolved artifacts on disk.
// *catalog.Realizer is the production implementation.
type ArtifactRealizer interface {
	RealizeAll(ctx context.Context, artifacts []*catalog.Artifact) error
}

// Options controls a single Enter call.
type Options struct {
	// Platform overrides host detection ("x86_64-linux").
	Platform string
	// Dir is where the manifest search starts. Empty means the
	// current directory.
	Dir string
	// Command, when non-empty, runs through the session shell instead
	// of handing over an interactive one. Its exit status surfaces as
	// an *ExitError.
	Command string
	// Frozen restricts resolution to the lockfile.
	Frozen bool
}

// Environment is a provisioned session environment, ready to hand over
// to a shell or to share through the SSH server.
type Environment struct {
	// ID is the SHED_SESSION value stamped into Env.
	ID string
	// Platform the environment was provisioned for.
	Platform platform.Platform
	// ManifestDir holds the shedfile that described the environment.
	ManifestDir string
	// Env is the composed environment in KEY=VALUE form.
	Env []string
	// Shell is the shell Enter hands over to.
	Shell string
}

// Session holds the collaborators Enter composes. Every dependency has
// a production default, and tests swap in doubles through the options.
type Session struct {
	config       *config.Config
	store        *catalog.Store
	logger       *log.Logger
	realizer     ArtifactRealizer
	catalogFor   func(manifestDir string, frozen bool) (catalog.Catalog, error)
	toolchainFor func(env []string) bootstrap.Toolchain
	installerFor func(env []string) bootstrap.Installer
	execRunner   runner.Runner
	shellRunner  runner.Runner
	environ      []string
	newID        func() string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithCatalogFactory replaces how the resolution chain is assembled.
func WithCatalogFactory(f func(manifestDir string, frozen bool) (catalog.Catalog, error)) Option {
	return func(s *Session) { s.catalogFor = f }
}

// WithRealizer replaces the artifact realizer.
func WithRealizer(r ArtifactRealizer) Option {
	return func(s *Session) { s.realizer = r }
}

// WithToolchainFactory replaces how the toolchain manager is built for
// a composed environment.
func WithToolchainFactory(f func(env []string) bootstrap.Toolchain) Option {
	return func(s *Session) { s.toolchainFor = f }
}

// WithInstallerFactory replaces how the extension installer is built
// for a composed environment.
func WithInstallerFactory(f func(env []string) bootstrap.Installer) Option {
	return func(s *Session) { s.installerFor = f }
}

// WithExecRunner replaces the runner used for the interactive handover.
func WithExecRunner(r runner.Runner) Option {
	return func(s *Session) { s.execRunner = r }
}

// WithShellRunner replaces the runner used for hooks and -c commands.
func WithShellRunner(r runner.Runner) Option {
	return func(s *Session) { s.shellRunner = r }
}

// WithEnviron replaces the inherited base environment.
func WithEnviron(environ []string) Option {
	return func(s *Session) { s.environ = environ }
}

// WithStdio redirects the session's standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Session) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithSessionID replaces the SHED_SESSION generator.
func WithSessionID(f func() string) Option {
	return func(s *Session) { s.newID = f }
}

// New creates a Session with production defaults: the catalog chain
// from BuildCatalog, a realizer against the configured cache, rustup
// bootstrap, and real process execution.
func New(cfg *config.Config, store *catalog.Store, opts ...Option) *Session {
	s := &Session{
		config:  cfg,
		store:   store,
		logger:  log.NewWithOptions(os.Stderr, log.Options{Prefix: "session"}),
		environ: os.Environ(),
		newID:   uuid.NewString,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	s.catalogFor = func(manifestDir string, frozen bool) (catalog.Catalog, error) {
		return BuildCatalog(cfg, manifestDir, frozen)
	}
	s.realizer = catalog.NewRealizer(store,
		catalog.WithRealizerCacheURL(string(cfg.Catalog.URL)))
	exec := runner.NewExecRunner()
	s.execRunner = exec
	s.shellRunner = runner.NewShellRunner()
	s.toolchainFor = func(env []string) bootstrap.Toolchain {
		return bootstrap.NewRustupToolchain(exec,
			bootstrap.WithToolchainEnv(env),
			bootstrap.WithToolchainLogger(s.logger))
	}
	s.installerFor = func(env []string) bootstrap.Installer {
		return bootstrap.NewProbeInstaller(exec,
			bootstrap.WithInstallerEnv(env),
			bootstrap.WithInstallerLogger(s.logger))
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enter provisions the environment and hands over control. The steps
// run in a fixed order: manifest, platform gate, resolution,
// realization, environment, bootstrap, hook, handover. The first
// failure aborts everything after it.
func (s *Session) Enter(ctx context.Context, opts Options) error {
	pe, err := s.Provision(ctx, opts)
	if err != nil {
		return err
	}
	return s.handOver(ctx, opts, pe)
}

// Provision runs everything Enter does short of the handover: manifest,
// platform gate, resolution, realization, environment composition,
// bootstrap, and the on_enter hook. `shed serve` uses it to build the
// environment it shares over SSH.
func (s *Session) Provision(ctx context.Context, opts Options) (*Environment, error) {
	sf, err := shedfile.Load(opts.Dir)
	if err != nil {
		return nil, err
	}
	manifestDir := filepath.Dir(sf.FilePath.String())

	plat, err := s.resolvePlatform(opts.Platform)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("entering environment", "manifest", sf.FilePath, "platform", plat)

	cat, err := s.catalogFor(manifestDir, opts.Frozen)
	if err != nil {
		return nil, err
	}

	resolver := resolve.NewResolver(cat, s.store, resolve.WithLogger(s.logger))
	res, err := resolver.Resolve(ctx, sf, plat)
	if err != nil {
		return nil, err
	}

	if err := s.realizer.RealizeAll(ctx, res.Artifacts()); err != nil {
		return nil, err
	}

	env, err := s.composeEnv(sf, plat, res, manifestDir)
	if err != nil {
		return nil, err
	}
	envSlice := runner.EnvToSlice(env)

	seq := bootstrap.NewSequence(
		s.toolchainFor(envSlice),
		s.installerFor(envSlice),
		bootstrap.WithSequenceLogger(s.logger),
	)
	if err := seq.Run(ctx, sf.Toolchain, sf.Extensions); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	if sf.Hooks != nil && strings.TrimSpace(sf.Hooks.OnEnter) != "" {
		hook := s.shellRunner.Run(ctx, runner.Spec{
			Script: sf.Hooks.OnEnter,
			Dir:    manifestDir,
			Env:    envSlice,
			Stdin:  s.stdin,
			Stdout: s.stdout,
			Stderr: s.stderr,
		})
		if hook.Err != nil {
			return nil, fmt.Errorf("on_enter hook: %w", hook.Err)
		}
		if !hook.ExitCode.IsSuccess() {
			return nil, fmt.Errorf("on_enter hook: exit status %s", hook.ExitCode)
		}
	}

	return &Environment{
		ID:          env["SHED_SESSION"],
		Platform:    plat,
		ManifestDir: manifestDir,
		Env:         envSlice,
		Shell:       s.pickShell(env),
	}, nil
}

// resolvePlatform normalizes an override or detects the host.
func (s *Session) resolvePlatform(override string) (platform.Platform, error) {
	if override != "" {
		return platform.Normalize(override)
	}
	return platform.Detect()
}

// composeEnv builds the session environment: the inherited base, the
// search path additions, the manifest env files and vars, and the
// session identity variables. The parent process environment is never
// modified.
func (s *Session) composeEnv(sf *shedfile.Shedfile, plat platform.Platform, res *resolve.Resolution, manifestDir string) (map[string]string, error) {
	env := runner.EnvFromSlice(s.environ)
	searchpath.Compose(env, plat.OS(), res)

	if sf.Env != nil {
		for _, file := range sf.Env.Files {
			if err := runner.LoadEnvFile(env, string(file), manifestDir); err != nil {
				return nil, err
			}
		}
		maps.Copy(env, sf.Env.Vars)
	}

	env["SHED_SESSION"] = s.newID()
	env["SHED_PLATFORM"] = string(plat)
	return env, nil
}

// handOver runs the one-shot command or replaces the terminal's
// foreground work with an interactive shell.
func (s *Session) handOver(ctx context.Context, opts Options, pe *Environment) error {
	spec := runner.Spec{
		Env:    pe.Env,
		Stdin:  s.stdin,
		Stdout: s.stdout,
		Stderr: s.stderr,
	}
	if opts.Command != "" {
		spec.Argv = []string{pe.Shell, "-c", opts.Command}
		s.logger.Debug("running command", "shell", pe.Shell)
	} else {
		spec.Argv = []string{pe.Shell}
		s.logger.Info("environment ready", "shell", pe.Shell, "session", pe.ID)
	}

	res := s.execRunner.Run(ctx, spec)
	if res.Err != nil {
		return res.Err
	}
	if !res.ExitCode.IsSuccess() {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}

// pickShell chooses the shell to hand over to: the configured shell,
// then $SHELL from the composed environment, then /bin/bash, then
// /bin/sh.
func (s *Session) pickShell(env map[string]string) string {
	if s.config.Shell != "" {
		return string(s.config.Shell)
	}
	if shell := env["SHELL"]; shell != "" {
		return shell
	}
	if _, err := os.Stat("/bin/bash"); err == nil {
		return "/bin/bash"
	}
	return "/bin/sh"
}

// IsExitError extracts the handed-over command's exit status, when err
// carries one.
func IsExitError(err error) (runner.ExitCode, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
