// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFile reads a dotenv file and merges its variables into env.
// Relative paths resolve against baseDir (the manifest directory). A
// trailing '?' marks the file optional: a missing optional file is not
// an error. Later loads override earlier values for the same key.
func LoadEnvFile(env map[string]string, path, baseDir string) error {
	optional := strings.HasSuffix(path, "?")
	path = strings.TrimSuffix(path, "?")

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(baseDir, filepath.FromSlash(path))
	}

	content, err := os.ReadFile(full)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading env file %q: %w", path, err)
	}
	return ParseEnvFile(env, content, path)
}

// ParseEnvFile merges dotenv-format content into env. Blank lines and
// '#' comments are skipped and an 'export ' prefix is ignored. Values
// may be bare (with optional trailing comment), single-quoted
// (literal), or double-quoted (\n, \r, \t, \\, \" and \$ escapes). The
// name parameter labels error positions.
func ParseEnvFile(env map[string]string, content []byte, name string) error {
	lineNum := 0
	for line := range strings.Lines(string(content)) {
		lineNum++
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "export "); ok {
			line = strings.TrimSpace(rest)
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("%s:%d: missing '='", name, lineNum)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%s:%d: empty variable name", name, lineNum)
		}

		parsed, err := unquoteEnvValue(value)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
		env[key] = parsed
	}
	return nil
}

func unquoteEnvValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", nil
	case value[0] == '\'':
		if len(value) < 2 || value[len(value)-1] != '\'' {
			return "", errors.New("unterminated single quote")
		}
		return value[1 : len(value)-1], nil
	case value[0] == '"':
		if len(value) < 2 || value[len(value)-1] != '"' {
			return "", errors.New("unterminated double quote")
		}
		return expandEscapes(value[1 : len(value)-1]), nil
	default:
		// Bare values may carry a trailing comment.
		if before, _, found := strings.Cut(value, " #"); found {
			value = strings.TrimSpace(before)
		}
		return value, nil
	}
}

func expandEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\', '"', '$':
			b.WriteByte(s[i])
		default:
			// Unknown escape, keep both characters.
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
