// SPDX-License-Identifier: MPL-2.0

package searchpath

import (
	"os"
	"strings"

	"shed-cli/internal/resolve"
)

// Variable returns the environment variable consulted by the dynamic
// linker on the given GOOS. Unixes without a dedicated variable fall
// back to LD_LIBRARY_PATH, which is what their loaders honor.
func Variable(goos string) string {
	switch goos {
	case "darwin":
		return "DYLD_LIBRARY_PATH"
	case "windows":
		return "PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// Build joins entries with the OS list separator and appends the
// inherited value as a suffix. Duplicate and empty entries are dropped,
// keeping the first occurrence. The inherited value is appended verbatim
// and never inspected, so whatever the parent process exported survives
// at the end of the result. An empty inherited value produces no
// trailing separator.
func Build(entries []string, inherited string) string {
	seen := make(map[string]bool, len(entries))
	parts := make([]string, 0, len(entries)+1)
	for _, entry := range entries {
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		parts = append(parts, entry)
	}
	if inherited != "" {
		parts = append(parts, inherited)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Compose applies a resolution's directories to a session environment:
// the linker variable for goos gains the library dirs and PATH gains the
// tool bin dirs, both prepended ahead of whatever the map already holds.
// Variables without any new entries are left untouched.
func Compose(env map[string]string, goos string, res *resolve.Resolution) {
	if libDirs := res.LibDirs(); len(libDirs) > 0 {
		name := Variable(goos)
		env[name] = Build(libDirs, env[name])
	}
	if binDirs := res.BinDirs(); len(binDirs) > 0 {
		env["PATH"] = Build(binDirs, env["PATH"])
	}
}
