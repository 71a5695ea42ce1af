// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// ChangeAdded marks an entry present only in the new lock.
	ChangeAdded ChangeKind = "added"
	// ChangeRemoved marks an entry present only in the old lock.
	ChangeRemoved ChangeKind = "removed"
	// ChangeModified marks an entry pinned differently in the two locks.
	ChangeModified ChangeKind = "modified"
)

type (
	// ChangeKind classifies one lock difference.
	ChangeKind string

	// Change is one difference between two locks, keyed by (name, platform).
	Change struct {
		Kind     ChangeKind
		Name     string
		Platform string
		// Detail lists the changed fields for modified entries.
		Detail string
	}
)

// String renders the change in the +/-/~ form `shed lock --check` prints.
func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+ %s (%s)", c.Name, c.Platform)
	case ChangeRemoved:
		return fmt.Sprintf("- %s (%s)", c.Name, c.Platform)
	default:
		return fmt.Sprintf("~ %s (%s): %s", c.Name, c.Platform, c.Detail)
	}
}

// Diff compares two locks entry by entry. An empty result means after pins
// exactly what before pins. Changes are ordered (platform, name) so output
// is stable.
func Diff(before, after *File) []Change {
	type key struct{ name, platform string }

	beforeByKey := make(map[key]*Package, len(before.Packages))
	for i := range before.Packages {
		p := &before.Packages[i]
		beforeByKey[key{p.Name, p.Platform}] = p
	}

	var changes []Change
	seen := make(map[key]bool, len(after.Packages))
	for i := range after.Packages {
		p := &after.Packages[i]
		k := key{p.Name, p.Platform}
		seen[k] = true

		prev, ok := beforeByKey[k]
		if !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Name: p.Name, Platform: p.Platform})
			continue
		}
		if detail := describeModification(prev, p); detail != "" {
			changes = append(changes, Change{Kind: ChangeModified, Name: p.Name, Platform: p.Platform, Detail: detail})
		}
	}
	for i := range before.Packages {
		p := &before.Packages[i]
		if !seen[key{p.Name, p.Platform}] {
			changes = append(changes, Change{Kind: ChangeRemoved, Name: p.Name, Platform: p.Platform})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Platform != changes[j].Platform {
			return changes[i].Platform < changes[j].Platform
		}
		return changes[i].Name < changes[j].Name
	})
	return changes
}

// describeModification lists the fields pinned differently, or "" when the
// entries agree.
func describeModification(before, after *Package) string {
	var parts []string
	appendDiff := func(field, beforeVal, afterVal string) {
		if beforeVal != afterVal {
			parts = append(parts, fmt.Sprintf("%s %s -> %s", field, orNone(beforeVal), orNone(afterVal)))
		}
	}

	appendDiff("kind", string(before.Kind), string(after.Kind))
	appendDiff("store_hash", before.StoreHash, after.StoreHash)
	appendDiff("store_path", before.StorePath, after.StorePath)
	appendDiff("nar_url", before.NarURL, after.NarURL)
	appendDiff("nar_hash", before.NarHash, after.NarHash)
	appendDiff("file_hash", before.FileHash, after.FileHash)
	appendDiff("compression", before.Compression, after.Compression)

	return strings.Join(parts, ", ")
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
