// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"bufio"
	"compress/bzip2"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix/nar"
	"zombiezen.com/go/nix/nixbase32"
)

type (
	// Realizer downloads artifact archives from the binary cache, verifies
	// their hashes, and unpacks them into the local store. Realization is
	// idempotent: artifacts whose output directory already exists are
	// skipped.
	Realizer struct {
		store      *Store
		cacheURL   string
		httpClient *http.Client
		userAgent  string
		logger     *log.Logger
	}

	// RealizerOption configures a Realizer during construction.
	RealizerOption func(*Realizer)
)

// WithRealizerHTTPClient sets a custom HTTP client for archive downloads.
func WithRealizerHTTPClient(c *http.Client) RealizerOption {
	return func(r *Realizer) {
		r.httpClient = c
	}
}

// WithRealizerCacheURL overrides the binary cache base URL archives are
// fetched from.
func WithRealizerCacheURL(base string) RealizerOption {
	return func(r *Realizer) {
		r.cacheURL = base
	}
}

// WithRealizerUserAgent sets the User-Agent header sent with every download.
func WithRealizerUserAgent(ua string) RealizerOption {
	return func(r *Realizer) {
		r.userAgent = ua
	}
}

// WithRealizerLogger sets the logger used for realization progress.
func WithRealizerLogger(logger *log.Logger) RealizerOption {
	return func(r *Realizer) {
		r.logger = logger
	}
}

// NewRealizer creates a Realizer unpacking into the given store.
// Defaults: the public binary cache and http.DefaultClient.
func NewRealizer(store *Store, opts ...RealizerOption) *Realizer {
	r := &Realizer{
		store:      store,
		cacheURL:   DefaultCacheURL,
		httpClient: http.DefaultClient,
		userAgent:  "shed/dev",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "realize"})
	}
	return r
}

// RealizeAll realizes every artifact in order, stopping at the first
// failure.
func (r *Realizer) RealizeAll(ctx context.Context, artifacts []*Artifact) error {
	for _, art := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Realize(ctx, art); err != nil {
			return err
		}
	}
	return nil
}

// Realize ensures the artifact's output directory exists and is populated.
// Already-realized artifacts return immediately. The archive is unpacked
// into a temporary directory and renamed into place only after the download
// hash verifies, so a partial download never becomes visible.
func (r *Realizer) Realize(ctx context.Context, art *Artifact) error {
	r.store.Assign(art)

	if r.store.Realized(art) {
		r.logger.Debug("already realized", "name", art.Name, "dir", art.OutputDir)
		return nil
	}

	if art.NarURL == "" {
		return fmt.Errorf("realizing %s: %s does not exist and the catalog entry names no archive", art.Name, art.OutputDir)
	}

	tempDir, err := os.MkdirTemp(r.store.Root(), ".realize-")
	if err != nil {
		return fmt.Errorf("realizing %s: %w", art.Name, err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }() // no-op once renamed into place

	if err := r.fetchAndUnpack(ctx, art, tempDir); err != nil {
		return err
	}

	if err := os.Rename(tempDir, art.OutputDir); err != nil {
		// A concurrent realization may have won the race; the rename
		// failure is harmless as long as the output directory exists now.
		if r.store.Realized(art) {
			return nil
		}
		return fmt.Errorf("realizing %s: %w", art.Name, err)
	}

	r.logger.Info("realized", "name", art.Name, "platform", art.Platform, "dir", art.OutputDir)
	return nil
}

// fetchAndUnpack downloads the artifact archive, unpacks it into destDir,
// and verifies the download hash against the catalog entry.
func (r *Realizer) fetchAndUnpack(ctx context.Context, art *Artifact, destDir string) error {
	reqURL := r.cacheURL + "/" + art.NarURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("realizing %s: creating request: %w", art.Name, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("realizing %s: %w: %w", art.Name, ErrCatalogUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("realizing %s: %w: unexpected status %d fetching %s", art.Name, ErrCatalogUnavailable, resp.StatusCode, art.NarURL)
	}

	// Hash the compressed bytes as they stream through so verification
	// needs no second pass over the archive.
	hasher := sha256.New()
	tee := io.TeeReader(resp.Body, hasher)

	var archive io.Reader
	switch art.Compression {
	case "xz":
		archive, err = xz.NewReader(tee)
		if err != nil {
			return fmt.Errorf("realizing %s: opening xz stream: %w", art.Name, err)
		}
	case "bzip2":
		archive = bzip2.NewReader(tee)
	case "none", "":
		archive = tee
	default:
		return fmt.Errorf("realizing %s: unsupported compression %q", art.Name, art.Compression)
	}

	if err := unpackNAR(archive, destDir); err != nil {
		return fmt.Errorf("realizing %s: %w", art.Name, err)
	}

	// Drain any container trailer so the hash covers the whole download.
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return fmt.Errorf("realizing %s: draining archive: %w", art.Name, err)
	}

	if art.FileHash != "" {
		actual := nixbase32.EncodeToString(hasher.Sum(nil))
		if actual != art.FileHash {
			return fmt.Errorf("realizing %s: archive hash mismatch: want %s, got %s", art.Name, art.FileHash, actual)
		}
	}

	return nil
}

// unpackNAR extracts every archive entry into destDir, recreating
// directories, regular files (with the executable bit preserved), and
// symlinks.
func unpackNAR(archive io.Reader, destDir string) error {
	rd := nar.NewReader(bufio.NewReader(archive))

	for {
		hdr, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}

		// The root entry has an empty path; everything else must stay
		// inside destDir.
		if hdr.Path != "" && !filepath.IsLocal(hdr.Path) {
			return fmt.Errorf("archive entry %q escapes the output directory", hdr.Path)
		}
		targetPath := filepath.Join(destDir, filepath.FromSlash(hdr.Path))

		switch hdr.Mode.Type() {
		case os.ModeDir:
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
		case os.ModeSymlink:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			if err := os.Symlink(hdr.LinkTarget, targetPath); err != nil {
				return fmt.Errorf("creating symlink %s: %w", targetPath, err)
			}
		case 0: // regular file
			if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}

			perm := os.FileMode(0o644)
			if hdr.Mode&0o111 != 0 {
				perm = 0o755
			}

			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", targetPath, err)
			}

			written, err := io.Copy(outFile, rd)
			closeErr := outFile.Close()
			if err != nil {
				return fmt.Errorf("writing file %s: %w", targetPath, err)
			}
			if closeErr != nil {
				return fmt.Errorf("closing file %s: %w", targetPath, closeErr)
			}
			if written != hdr.Size {
				return fmt.Errorf("file %s: wrote %d bytes, archive declares %d", targetPath, written, hdr.Size)
			}
		default:
			// Other entry types do not occur in well-formed archives.
		}
	}

	return nil
}
