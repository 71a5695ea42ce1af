// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"shed-cli/internal/bootstrap"
	"shed-cli/internal/catalog"
	"shed-cli/internal/issue"
	"shed-cli/internal/lockfile"
	"shed-cli/internal/platform"
	"shed-cli/internal/resolve"
	"shed-cli/pkg/cueutil"
	"shed-cli/pkg/shedfile"
)

// classifySessionError maps environment entry failures to issue catalog IDs and
// returns a styled message for CLI rendering. It preserves actionable error details.
func classifySessionError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, shedfile.ErrNotFound):
		issueID = issue.ManifestNotFoundId
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		issueID = issue.PlatformUnsupportedId
	case errors.Is(err, resolve.ErrPlatformNotDeclared):
		issueID = issue.PlatformNotDeclaredId
	case errors.Is(err, catalog.ErrUnresolvedPackage):
		issueID = issue.PackageUnresolvedId
	case errors.Is(err, catalog.ErrCatalogUnavailable), errors.Is(err, catalog.ErrMalformedNarinfo):
		issueID = issue.CatalogUnavailableId
	case errors.Is(err, catalog.ErrInvalidStore):
		issueID = issue.StoreCorruptedId
	case errors.Is(err, lockfile.ErrInvalidLockfile):
		issueID = issue.LockfileInvalidId
	case errors.Is(err, fs.ErrNotExist) && strings.Contains(err.Error(), lockfile.DefaultName):
		issueID = issue.FrozenWithoutLockId
	default:
		issueID = classifyWrappedError(err)
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// classifyWrappedError inspects structured error types that carry their own
// context. Bootstrap action errors are checked before the generic exec/permission
// sentinels because their wrapped causes often include those sentinels too, and
// the action context is the more useful diagnosis.
func classifyWrappedError(err error) issue.Id {
	var verrs shedfile.ValidationErrors
	if errors.As(err, &verrs) {
		return issue.ManifestParseErrorId
	}

	var cueErr *cueutil.ValidationError
	if errors.As(err, &cueErr) {
		return issue.ManifestParseErrorId
	}

	var actionErr *bootstrap.ActionError
	if errors.As(err, &actionErr) {
		switch {
		case actionErr.Action == "toolchain bootstrap":
			return issue.ToolchainNotFoundId
		case strings.HasPrefix(actionErr.Action, "ensuring extension"):
			return issue.ExtensionInstallFailedId
		default:
			return issue.BootstrapFailedId
		}
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		switch ae.Operation {
		case "load configuration", "validate configuration":
			return issue.ConfigLoadFailedId
		}
	}

	switch {
	case strings.Contains(err.Error(), "on_enter hook"):
		return issue.HookFailedId
	case errors.Is(err, exec.ErrNotFound):
		return issue.ShellNotFoundId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	}

	return 0
}
