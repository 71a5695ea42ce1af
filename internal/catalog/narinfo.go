// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"zombiezen.com/go/nix/nixbase32"
)

// storeHashLen is the length of the nixbase32 digest prefixing every store
// path (160 bits -> 32 base32 characters).
const storeHashLen = 32

// ErrMalformedNarinfo indicates a .narinfo document that could not be parsed
// into a usable artifact description.
var ErrMalformedNarinfo = errors.New("malformed narinfo")

// narInfo is the wire format of a binary-cache .narinfo document: one
// "Key: value" pair per line.
type narInfo struct {
	StorePath   string
	URL         string
	Compression string
	FileHash    string
	FileSize    int64
	NarHash     string
	NarSize     int64
	References  []string
	Deriver     string
	Signature   string
}

// parseNarinfo parses a .narinfo document. Unknown keys are ignored so the
// parser stays forward-compatible with cache extensions. StorePath and URL
// are required; hashes, when present, must be well-formed nixbase32.
func parseNarinfo(content string) (*narInfo, error) {
	info := &narInfo{}

	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "StorePath":
			info.StorePath = value
		case "URL":
			info.URL = value
		case "Compression":
			info.Compression = value
		case "FileHash":
			info.FileHash = strings.TrimPrefix(value, "sha256:")
		case "FileSize":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad FileSize %q", ErrMalformedNarinfo, value)
			}
			info.FileSize = size
		case "NarHash":
			info.NarHash = strings.TrimPrefix(value, "sha256:")
		case "NarSize":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad NarSize %q", ErrMalformedNarinfo, value)
			}
			info.NarSize = size
		case "References":
			if value != "" {
				info.References = strings.Fields(value)
			}
		case "Deriver":
			info.Deriver = value
		case "Sig":
			info.Signature = value
		}
	}

	if info.StorePath == "" {
		return nil, fmt.Errorf("%w: missing StorePath", ErrMalformedNarinfo)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("%w: missing URL", ErrMalformedNarinfo)
	}
	if info.Compression == "" {
		// Caches omit the key for uncompressed archives.
		info.Compression = "none"
	}
	for _, hash := range []string{info.FileHash, info.NarHash} {
		if hash == "" {
			continue
		}
		if _, err := nixbase32.DecodeString(hash); err != nil {
			return nil, fmt.Errorf("%w: bad hash %q: %v", ErrMalformedNarinfo, hash, err)
		}
	}

	return info, nil
}

// parseStorePath splits a store path ("/nix/store/<hash>-<name>") into its
// digest and name-version halves, validating the digest.
func parseStorePath(storePath string) (hash, storeName string, err error) {
	base := storePath
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}

	hash, storeName, found := strings.Cut(base, "-")
	if !found || storeName == "" {
		return "", "", fmt.Errorf("%w: store path %q has no name component", ErrMalformedNarinfo, storePath)
	}
	if len(hash) != storeHashLen {
		return "", "", fmt.Errorf("%w: store path %q has a %d-character digest, want %d", ErrMalformedNarinfo, storePath, len(hash), storeHashLen)
	}
	if _, err := nixbase32.DecodeString(hash); err != nil {
		return "", "", fmt.Errorf("%w: store path %q digest is not nixbase32: %v", ErrMalformedNarinfo, storePath, err)
	}

	return hash, storeName, nil
}
