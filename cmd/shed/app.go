// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"shed-cli/internal/catalog"
	"shed-cli/internal/config"
	"shed-cli/internal/platform"
	"shed-cli/internal/resolve"
	"shed-cli/internal/session"
	"shed-cli/pkg/shedfile"
	"shed-cli/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and delegate business logic through its service interfaces
	// (Sessions, Resolver, Config).
	App struct {
		Config   ConfigProvider
		Sessions SessionService
		Resolver ResolverService
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp. Tests can supply mock implementations
	// to isolate specific service behavior.
	Dependencies struct {
		Config   ConfigProvider
		Sessions SessionService
		Resolver ResolverService
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// ResolveRequest captures the inputs shared by the resolve and lock
	// commands as an immutable value.
	ResolveRequest struct {
		// Platform is the --platform override. Zero value ("") means detect
		// the host platform.
		Platform string
		// Dir is the directory the manifest search starts from. Zero value
		// ("") means the current working directory.
		Dir string
		// Frozen restricts resolution to the committed lockfile.
		Frozen bool
	}

	// ResolveReport is the result of a full resolution pass. It carries
	// everything the CLI layer needs to render tables, write lockfiles, or
	// diff against a committed lockfile.
	ResolveReport struct {
		Manifest    *shedfile.Shedfile
		ManifestDir string
		Platform    platform.Platform
		Resolution  *resolve.Resolution
		// Channel is the catalog channel resolution ran against, recorded in
		// lockfiles written from this report.
		Channel string
	}

	// SessionService provisions environments and hands over interactive
	// sessions. Implementations are responsible for building their own
	// catalog, store, and runner wiring from configuration.
	SessionService interface {
		Enter(ctx context.Context, opts session.Options) error
		Provision(ctx context.Context, opts session.Options) (*session.Environment, error)
	}

	// ResolverService resolves a manifest against the catalog without
	// realizing artifacts or mutating the store contents beyond store
	// directory creation.
	ResolverService interface {
		Resolve(ctx context.Context, req ResolveRequest) (*ResolveReport, error)
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// appSessionService implements SessionService with production wiring: a
	// fresh session per call, built from freshly loaded configuration.
	appSessionService struct {
		config ConfigProvider
	}

	// appResolverService implements ResolverService with production wiring.
	appResolverService struct {
		config ConfigProvider
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Sessions == nil {
		deps.Sessions = &appSessionService{config: deps.Config}
	}
	if deps.Resolver == nil {
		deps.Resolver = &appResolverService{config: deps.Config}
	}

	return &App{
		Config:   deps.Config,
		Sessions: deps.Sessions,
		Resolver: deps.Resolver,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}, nil
}

// loadConfigForCLI loads configuration through the provider, honoring the
// --config flag. Load failures abort the command; the warn-and-use-defaults
// fallback is reserved for initRootConfig.
func loadConfigForCLI(ctx context.Context, provider ConfigProvider) (*config.Config, error) {
	return provider.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(cfgFile)})
}

// openStore ensures the cache directory exists and opens the artifact store
// beneath it.
func openStore(cfg *config.Config) (*catalog.Store, error) {
	cacheDir, err := config.EnsureCacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(filepath.Join(cacheDir, "store"))
}

// resolvePlatformOverride normalizes a --platform override or detects the
// host platform when no override is given.
func resolvePlatformOverride(override string) (platform.Platform, error) {
	if override != "" {
		return platform.Normalize(override)
	}
	return platform.Detect()
}

func (s *appSessionService) newSession(ctx context.Context) (*session.Session, error) {
	cfg, err := loadConfigForCLI(ctx, s.config)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return session.New(cfg, store), nil
}

// Enter provisions the environment described by the manifest governing
// opts.Dir and hands over an interactive session.
func (s *appSessionService) Enter(ctx context.Context, opts session.Options) error {
	sess, err := s.newSession(ctx)
	if err != nil {
		return err
	}
	return sess.Enter(ctx, opts)
}

// Provision builds the environment without handing over a shell.
func (s *appSessionService) Provision(ctx context.Context, opts session.Options) (*session.Environment, error) {
	sess, err := s.newSession(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Provision(ctx, opts)
}

// Resolve runs the resolution pipeline: manifest, platform gate, catalog,
// then ordered library and tool resolution. It never downloads artifacts.
func (s *appResolverService) Resolve(ctx context.Context, req ResolveRequest) (*ResolveReport, error) {
	cfg, err := loadConfigForCLI(ctx, s.config)
	if err != nil {
		return nil, err
	}

	sf, err := shedfile.Load(req.Dir)
	if err != nil {
		return nil, err
	}
	manifestDir := filepath.Dir(sf.FilePath.String())

	plat, err := resolvePlatformOverride(req.Platform)
	if err != nil {
		return nil, err
	}

	cat, err := session.BuildCatalog(cfg, manifestDir, req.Frozen)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	res, err := resolve.NewResolver(cat, store).Resolve(ctx, sf, plat)
	if err != nil {
		return nil, err
	}

	return &ResolveReport{
		Manifest:    sf,
		ManifestDir: manifestDir,
		Platform:    plat,
		Resolution:  res,
		Channel:     string(cfg.Catalog.Channel),
	}, nil
}
