// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"slices"
	"strings"
)

// EnvToSlice flattens an environment map into KEY=value form, sorted by
// key so the commands a session runs are reproducible.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// EnvFromSlice parses KEY=value entries into a map. Entries without a
// '=' or with an empty name are dropped; for repeated names the last
// entry wins, matching how execve resolves duplicates.
func EnvFromSlice(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = value
	}
	return env
}
