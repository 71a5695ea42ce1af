// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"shed-cli/internal/catalog"
	"shed-cli/internal/config"
	"shed-cli/internal/lockfile"
)

// BuildCatalog assembles the resolution chain for a manifest directory:
// configured overlays first, then the lockfile when one exists, then
// the remote catalog. With frozen set the lockfile is the only source
// and a missing lockfile is an error.
func BuildCatalog(cfg *config.Config, manifestDir string, frozen bool) (catalog.Catalog, error) {
	lockPath := filepath.Join(manifestDir, lockfile.DefaultName)

	if frozen {
		locked, err := lockfile.NewLockedCatalog(lockPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("frozen entry needs %s: %w", lockfile.DefaultName, err)
			}
			return nil, err
		}
		return locked, nil
	}

	var chain catalog.Chain

	paths := make([]string, len(cfg.Catalog.Overlays))
	for i, p := range cfg.Catalog.Overlays {
		paths[i] = string(p)
	}
	overlays, err := catalog.LoadOverlays(paths...)
	if err != nil {
		return nil, err
	}
	chain = append(chain, overlays...)

	locked, err := lockfile.NewLockedCatalog(lockPath)
	switch {
	case err == nil:
		chain = append(chain, locked)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	timeout := cfg.Catalog.TimeoutSeconds
	if timeout <= 0 {
		timeout = config.DefaultCatalogTimeoutSeconds
	}
	chain = append(chain, catalog.NewRemoteCatalog(
		catalog.WithCacheURL(string(cfg.Catalog.URL)),
		catalog.WithChannel(string(cfg.Catalog.Channel)),
		catalog.WithHTTPClient(&http.Client{Timeout: time.Duration(timeout) * time.Second}),
	))
	return chain, nil
}
