// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseEnvFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "simple key value",
			content:  "FOO=bar",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "multiple lines",
			content:  "FOO=bar\nBAZ=qux\n",
			expected: map[string]string{"FOO": "bar", "BAZ": "qux"},
		},
		{
			name:     "empty value",
			content:  "EMPTY=",
			expected: map[string]string{"EMPTY": ""},
		},
		{
			name:     "value with equals sign",
			content:  "URL=https://example.com?foo=bar",
			expected: map[string]string{"URL": "https://example.com?foo=bar"},
		},
		{
			name:     "comments and blank lines",
			content:  "# leading comment\n\nFOO=bar\n   \n# trailing comment",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "inline comment on bare value",
			content:  "FOO=bar # rest is ignored",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "hash without space is part of the value",
			content:  "FOO=bar#kept",
			expected: map[string]string{"FOO": "bar#kept"},
		},
		{
			name:     "export prefix ignored",
			content:  "export FOO=bar",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "double quoted with escapes",
			content:  `FOO="line1\nline2\t\"quoted\""`,
			expected: map[string]string{"FOO": "line1\nline2\t\"quoted\""},
		},
		{
			name:     "single quoted stays literal",
			content:  `FOO='a\nb # not a comment'`,
			expected: map[string]string{"FOO": `a\nb # not a comment`},
		},
		{
			name:     "unknown escape kept verbatim",
			content:  `FOO="a\zb"`,
			expected: map[string]string{"FOO": `a\zb`},
		},
		{
			name:     "windows line endings",
			content:  "FOO=bar\r\nBAZ=qux\r\n",
			expected: map[string]string{"FOO": "bar", "BAZ": "qux"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := make(map[string]string)
			if err := ParseEnvFile(env, []byte(tt.content), "test.env"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(env) != len(tt.expected) {
				t.Errorf("got %d variables, want %d: %v", len(env), len(tt.expected), env)
			}
			for k, v := range tt.expected {
				if env[k] != v {
					t.Errorf("expected %s=%q, got %s=%q", k, v, k, env[k])
				}
			}
		})
	}
}

func TestParseEnvFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "missing equals",
			content: "FOO=bar\nJUSTAWORD\n",
			wantMsg: "test.env:2: missing '='",
		},
		{
			name:    "empty variable name",
			content: "=value",
			wantMsg: "empty variable name",
		},
		{
			name:    "unterminated double quote",
			content: `FOO="unclosed`,
			wantMsg: "unterminated double quote",
		},
		{
			name:    "unterminated single quote",
			content: `FOO='unclosed`,
			wantMsg: "unterminated single quote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := make(map[string]string)
			err := ParseEnvFile(env, []byte(tt.content), "test.env")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.env"), []byte("FOO=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := map[string]string{"FOO": "old", "KEEP": "yes"}
	if err := LoadEnvFile(env, "app.env", dir); err != nil {
		t.Fatalf("LoadEnvFile() returned error: %v", err)
	}

	if env["FOO"] != "from-file" {
		t.Errorf("FOO = %q, want the file value to override", env["FOO"])
	}
	if env["KEEP"] != "yes" {
		t.Errorf("KEEP = %q, want untouched keys preserved", env["KEEP"])
	}
}

func TestLoadEnvFile_OptionalMissing(t *testing.T) {
	t.Parallel()

	env := make(map[string]string)
	if err := LoadEnvFile(env, "nope.env?", t.TempDir()); err != nil {
		t.Fatalf("optional missing file should not error, got: %v", err)
	}
	if len(env) != 0 {
		t.Errorf("env = %v, want empty", env)
	}
}

func TestLoadEnvFile_RequiredMissing(t *testing.T) {
	t.Parallel()

	err := LoadEnvFile(make(map[string]string), "nope.env", t.TempDir())
	if err == nil {
		t.Fatal("missing required file should error")
	}
	if !strings.Contains(err.Error(), "nope.env") {
		t.Errorf("error should name the file, got: %v", err)
	}
}

func TestLoadEnvFile_AbsolutePath(t *testing.T) {
	t.Parallel()

	full := filepath.Join(t.TempDir(), "abs.env")
	if err := os.WriteFile(full, []byte("ABS=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := make(map[string]string)
	if err := LoadEnvFile(env, full, "/unrelated/base"); err != nil {
		t.Fatalf("LoadEnvFile() returned error: %v", err)
	}
	if env["ABS"] != "1" {
		t.Errorf("ABS = %q, want %q", env["ABS"], "1")
	}
}
