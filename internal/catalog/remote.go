// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

const (
	// DefaultResolverURL is the public build-farm endpoint answering
	// (name, platform) -> store path queries.
	DefaultResolverURL = "https://hydra.nixos.org"

	// DefaultCacheURL is the public binary cache serving .narinfo metadata
	// and archives.
	DefaultCacheURL = "https://cache.nixos.org"

	// DefaultChannel is the build-farm jobset consulted when no channel is
	// configured.
	DefaultChannel = "trunk-combined"

	// maxResolveResponseBytes is the upper bound on resolver JSON response
	// size (1 MB). Prevents unbounded memory consumption from malformed
	// responses.
	maxResolveResponseBytes = 1 << 20

	// maxNarinfoBytes is the upper bound on .narinfo document size (64 KB).
	// Real documents are a few hundred bytes.
	maxNarinfoBytes = 64 << 10
)

type (
	// RemoteCatalog resolves package names against an HTTP build farm and
	// binary cache. Resolution is two requests: the build-farm jobset
	// endpoint maps (name, platform) to a store path, then the cache's
	// .narinfo document for that path's digest supplies the archive
	// location and hashes.
	RemoteCatalog struct {
		httpClient  *http.Client
		resolverURL string // build-farm base URL (overridable for tests)
		cacheURL    string // binary cache base URL
		channel     string // jobset name spliced into resolution URLs
		userAgent   string
		logger      *log.Logger
	}

	// RemoteOption configures a RemoteCatalog during construction.
	RemoteOption func(*RemoteCatalog)

	// buildInfo is the JSON wire format of a build-farm job response.
	buildInfo struct {
		ID           int                    `json:"id"`
		BuildStatus  int                    `json:"buildstatus"` // 0 = succeeded
		BuildOutputs map[string]buildOutput `json:"buildoutputs"`
	}

	// buildOutput is one named output of a build-farm job.
	buildOutput struct {
		Path string `json:"path"`
	}
)

// Compile-time interface check.
var _ Catalog = (*RemoteCatalog)(nil)

// WithHTTPClient sets a custom HTTP client, useful for tests or timeout
// configurations.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteCatalog) {
		r.httpClient = c
	}
}

// WithResolverURL overrides the build-farm base URL, primarily for test servers.
func WithResolverURL(base string) RemoteOption {
	return func(r *RemoteCatalog) {
		r.resolverURL = strings.TrimRight(base, "/")
	}
}

// WithCacheURL overrides the binary cache base URL.
func WithCacheURL(base string) RemoteOption {
	return func(r *RemoteCatalog) {
		r.cacheURL = strings.TrimRight(base, "/")
	}
}

// WithChannel sets the build-farm jobset consulted during resolution.
func WithChannel(channel string) RemoteOption {
	return func(r *RemoteCatalog) {
		r.channel = channel
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) RemoteOption {
	return func(r *RemoteCatalog) {
		r.userAgent = ua
	}
}

// WithLogger sets the logger used for resolution progress.
func WithLogger(logger *log.Logger) RemoteOption {
	return func(r *RemoteCatalog) {
		r.logger = logger
	}
}

// NewRemoteCatalog creates a RemoteCatalog with sensible defaults:
// the public build farm and cache, the default jobset, and
// http.DefaultClient.
func NewRemoteCatalog(opts ...RemoteOption) *RemoteCatalog {
	r := &RemoteCatalog{
		httpClient:  http.DefaultClient,
		resolverURL: DefaultResolverURL,
		cacheURL:    DefaultCacheURL,
		channel:     DefaultChannel,
		userAgent:   "shed/dev",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "catalog"})
	}
	return r
}

// Name identifies the catalog in logs and diagnostics.
func (r *RemoteCatalog) Name() string { return "remote" }

// CacheURL returns the binary cache base URL archives are fetched from.
func (r *RemoteCatalog) CacheURL() string { return r.cacheURL }

// Resolve maps (name, platform) to an artifact via the build farm and cache.
// A 404 from either endpoint means the catalog does not carry the package
// and yields an UnresolvedPackageError; any other failure wraps
// ErrCatalogUnavailable.
func (r *RemoteCatalog) Resolve(ctx context.Context, name shedfile.PackageName, plat platform.Platform) (*Artifact, error) {
	storePath, err := r.resolveStorePath(ctx, name, plat)
	if err != nil {
		return nil, err
	}

	hash, storeName, err := parseStorePath(storePath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", name, err)
	}

	info, err := r.fetchNarinfo(ctx, name, plat, hash)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved package", "name", name, "platform", plat, "store_path", info.StorePath)

	return &Artifact{
		Name:        name,
		Platform:    plat,
		StoreHash:   hash,
		StoreName:   storeName,
		StorePath:   info.StorePath,
		NarURL:      info.URL,
		Compression: info.Compression,
		FileHash:    info.FileHash,
		FileSize:    info.FileSize,
		NarHash:     info.NarHash,
		NarSize:     info.NarSize,
		References:  info.References,
	}, nil
}

// resolveStorePath asks the build farm which store path the named package's
// latest successful build produced for the platform.
func (r *RemoteCatalog) resolveStorePath(ctx context.Context, name shedfile.PackageName, plat platform.Platform) (string, error) {
	reqURL := fmt.Sprintf("%s/job/nixos/%s/nixpkgs.%s.%s/latest", r.resolverURL, r.channel, name, plat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("resolving %s: creating request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w: %w", name, ErrCatalogUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", &UnresolvedPackageError{Name: name, Platform: plat, Catalog: r.Name()}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("resolving %s: %w: unexpected status %d", name, ErrCatalogUnavailable, resp.StatusCode)
	}

	var build buildInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResolveResponseBytes)).Decode(&build); err != nil {
		return "", fmt.Errorf("resolving %s: decoding response: %w", name, err)
	}

	if build.BuildStatus != 0 {
		r.logger.Warn("latest build did not succeed", "name", name, "status", build.BuildStatus)
	}
	if len(build.BuildOutputs) == 0 {
		return "", fmt.Errorf("resolving %s: %w: build has no outputs", name, ErrMalformedNarinfo)
	}

	return pickOutput(build.BuildOutputs), nil
}

// fetchNarinfo downloads and parses the cache's .narinfo document for a
// store digest.
func (r *RemoteCatalog) fetchNarinfo(ctx context.Context, name shedfile.PackageName, plat platform.Platform, hash string) (*narInfo, error) {
	reqURL := fmt.Sprintf("%s/%s.narinfo", r.cacheURL, hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetching narinfo for %s: creating request: %w", name, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching narinfo for %s: %w: %w", name, ErrCatalogUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The build farm knows the package but the cache never ingested it.
		return nil, &UnresolvedPackageError{Name: name, Platform: plat, Catalog: r.Name()}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching narinfo for %s: %w: unexpected status %d", name, ErrCatalogUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNarinfoBytes))
	if err != nil {
		return nil, fmt.Errorf("fetching narinfo for %s: reading body: %w", name, err)
	}

	info, err := parseNarinfo(string(body))
	if err != nil {
		return nil, fmt.Errorf("fetching narinfo for %s: %w", name, err)
	}
	return info, nil
}

// pickOutput selects one store path from a build's outputs. "out" carries
// the runtime payload when present, "bin" is the next best fit, otherwise
// the lexicographically first output keeps the choice deterministic.
func pickOutput(outputs map[string]buildOutput) string {
	if out, ok := outputs["out"]; ok {
		return out.Path
	}
	if bin, ok := outputs["bin"]; ok {
		return bin.Path
	}

	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return outputs[keys[0]].Path
}
