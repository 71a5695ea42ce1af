// SPDX-License-Identifier: EPL-2.0

package platform

import "strings"

// windowsReservedNames are device names Windows refuses as filenames no
// matter the extension. Manifest entries that become filesystem paths are
// checked against this set so a shedfile stays usable on every platform.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName reports whether name collides with a Windows
// device name. Windows applies the rule to the part before the first dot,
// so "nul.env" is as unusable as "nul".
func IsWindowsReservedName(name string) bool {
	base, _, _ := strings.Cut(strings.ToUpper(name), ".")
	return windowsReservedNames[strings.TrimSpace(base)]
}
