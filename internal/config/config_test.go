// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"shed-cli/internal/issue"
	"shed-cli/internal/testutil"
	"shed-cli/pkg/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CacheDir != "" {
		t.Errorf("expected default cache dir to be empty, got %q", cfg.CacheDir)
	}

	if cfg.Catalog.URL != DefaultCatalogURL {
		t.Errorf("expected default catalog URL %q, got %q", DefaultCatalogURL, cfg.Catalog.URL)
	}

	if cfg.Catalog.Channel != DefaultCatalogChannel {
		t.Errorf("expected default catalog channel %q, got %q", DefaultCatalogChannel, cfg.Catalog.Channel)
	}

	if len(cfg.Catalog.Overlays) != 0 {
		t.Errorf("expected default overlays to be empty, got %v", cfg.Catalog.Overlays)
	}

	if cfg.Catalog.TimeoutSeconds != DefaultCatalogTimeoutSeconds {
		t.Errorf("expected default timeout %d, got %d", DefaultCatalogTimeoutSeconds, cfg.Catalog.TimeoutSeconds)
	}

	if cfg.Shell != "" {
		t.Errorf("expected default shell to be empty, got %q", cfg.Shell)
	}

	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected default color scheme to be auto, got %s", cfg.UI.ColorScheme)
	}

	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}

	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = false: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS == "linux" {
		testXDGPath := "/tmp/test-xdg-config"
		restoreXDG := testutil.MustSetenv(t, "XDG_CONFIG_HOME", testXDGPath)

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() returned error: %v", err)
		}

		expected := filepath.Join(testXDGPath, AppName)
		if dir != expected {
			t.Errorf("ConfigDir() = %s, want %s", dir, expected)
		}
		restoreXDG()

		// With XDG_CONFIG_HOME unset, the directory falls back to ~/.config.
		homeDir := t.TempDir()
		restoreUnset := testutil.MustUnsetenv(t, "XDG_CONFIG_HOME")
		defer restoreUnset()
		restoreHome := testutil.SetHomeDir(t, homeDir)
		defer restoreHome()

		dir, err = ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() returned error: %v", err)
		}
		if want := filepath.Join(homeDir, ".config", AppName); dir != want {
			t.Errorf("ConfigDir() = %s, want %s", dir, want)
		}
	}

	// The override always wins, regardless of platform.
	SetConfigDirOverride("/tmp/override-config")
	defer Reset()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/tmp/override-config" {
		t.Errorf("ConfigDir() = %s, want override /tmp/override-config", dir)
	}
}

func TestCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG cache conventions are linux-specific")
	}

	restore := testutil.MustSetenv(t, "XDG_CACHE_HOME", "/tmp/test-xdg-cache")
	defer restore()

	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() returned error: %v", err)
	}

	expected := filepath.Join("/tmp/test-xdg-cache", AppName)
	if dir != expected {
		t.Errorf("CacheDir() = %s, want %s", dir, expected)
	}
}

func TestEffectiveCacheDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheDir = "/custom/cache"

	dir, err := EffectiveCacheDir(cfg)
	if err != nil {
		t.Fatalf("EffectiveCacheDir() returned error: %v", err)
	}
	if dir != "/custom/cache" {
		t.Errorf("EffectiveCacheDir() = %s, want /custom/cache", dir)
	}

	// Unset falls back to the platform default.
	cfg.CacheDir = ""
	dir, err = EffectiveCacheDir(cfg)
	if err != nil {
		t.Fatalf("EffectiveCacheDir() returned error: %v", err)
	}
	if !strings.HasSuffix(dir, AppName) {
		t.Errorf("EffectiveCacheDir() = %s, want path ending in %q", dir, AppName)
	}
}

func TestEnsureCacheDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.CacheDir = CacheDirPath(filepath.Join(tmpDir, "cache"))

	dir, err := EnsureCacheDir(cfg)
	if err != nil {
		t.Fatalf("EnsureCacheDir() returned error: %v", err)
	}
	if dir != string(cfg.CacheDir) {
		t.Errorf("EnsureCacheDir() = %s, want %s", dir, cfg.CacheDir)
	}

	info, err := os.Stat(filepath.Join(dir, "store"))
	if err != nil || !info.IsDir() {
		t.Errorf("store subdirectory not created: %v", err)
	}
}

func TestReset(t *testing.T) {
	SetConfigDirOverride("/tmp/something")
	SetConfigFilePathOverride("/tmp/custom.cue")
	Reset()

	if configDirOverride != "" {
		t.Error("Reset() did not clear configDirOverride")
	}
	if configFilePathOverride != "" {
		t.Error("Reset() did not clear configFilePathOverride")
	}
}

func TestLoad_FilePathOverride(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "override.cue")
	if err := os.WriteFile(cfgPath, []byte("shell: \"/bin/dash\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	SetConfigFilePathOverride(cfgPath)
	defer Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Shell != "/bin/dash" {
		t.Errorf("Shell = %q, want /bin/dash", cfg.Shell)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	SetConfigDirOverride(filepath.Join(tmpDir, "shed-config"))
	defer Reset()

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmpDir, "shed-config"))
	if err != nil || !info.IsDir() {
		t.Errorf("config directory not created: %v", err)
	}
}

func TestLoadAndSave(t *testing.T) {
	tmpDir := t.TempDir()
	SetConfigDirOverride(tmpDir)
	defer Reset()

	cfg := DefaultConfig()
	cfg.CacheDir = "/var/cache/shed-test"
	cfg.Catalog.Channel = "release-24.05"
	cfg.Catalog.Overlays = []OverlayPath{"/etc/shed/overlay.yaml"}
	cfg.Shell = "/bin/zsh"
	cfg.UI.ColorScheme = ColorSchemeDark
	cfg.UI.Verbose = true

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	loaded, resolvedPath, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: types.FilesystemPath(tmpDir)})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}

	wantPath := filepath.Join(tmpDir, ConfigFileName+"."+ConfigFileExt)
	if resolvedPath != wantPath {
		t.Errorf("resolvedPath = %s, want %s", resolvedPath, wantPath)
	}

	if loaded.CacheDir != cfg.CacheDir {
		t.Errorf("CacheDir = %q, want %q", loaded.CacheDir, cfg.CacheDir)
	}
	if loaded.Catalog.Channel != cfg.Catalog.Channel {
		t.Errorf("Catalog.Channel = %q, want %q", loaded.Catalog.Channel, cfg.Catalog.Channel)
	}
	if len(loaded.Catalog.Overlays) != 1 || loaded.Catalog.Overlays[0] != cfg.Catalog.Overlays[0] {
		t.Errorf("Catalog.Overlays = %v, want %v", loaded.Catalog.Overlays, cfg.Catalog.Overlays)
	}
	if loaded.Shell != cfg.Shell {
		t.Errorf("Shell = %q, want %q", loaded.Shell, cfg.Shell)
	}
	if loaded.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("UI.ColorScheme = %q, want dark", loaded.UI.ColorScheme)
	}
	if !loaded.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, resolvedPath, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: types.FilesystemPath(tmpDir)})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if resolvedPath != "" {
		t.Errorf("resolvedPath = %q, want empty when no config file exists", resolvedPath)
	}
	if cfg.Catalog.URL != DefaultCatalogURL {
		t.Errorf("Catalog.URL = %q, want default %q", cfg.Catalog.URL, DefaultCatalogURL)
	}
}

func TestLoad_CustomPath_Valid(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "custom.cue")
	content := `
catalog: {
	channel: "release-24.05"
	timeout_seconds: 15
}
ui: verbose: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, resolvedPath, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: types.FilesystemPath(cfgPath)})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if resolvedPath != cfgPath {
		t.Errorf("resolvedPath = %q, want %q", resolvedPath, cfgPath)
	}
	if cfg.Catalog.Channel != "release-24.05" {
		t.Errorf("Catalog.Channel = %q, want release-24.05", cfg.Catalog.Channel)
	}
	if cfg.Catalog.TimeoutSeconds != 15 {
		t.Errorf("Catalog.TimeoutSeconds = %d, want 15", cfg.Catalog.TimeoutSeconds)
	}
	// Unset fields keep their defaults.
	if cfg.Catalog.URL != DefaultCatalogURL {
		t.Errorf("Catalog.URL = %q, want default %q", cfg.Catalog.URL, DefaultCatalogURL)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: types.FilesystemPath(filepath.Join(t.TempDir(), "missing.cue")),
	})
	if err == nil {
		t.Fatal("loadWithOptions() should fail for a missing custom config path")
	}

	var actionable *issue.ActionableError
	if !errors.As(err, &actionable) {
		t.Errorf("error should be an ActionableError, got %T: %v", err, err)
	}
}

func TestLoad_CustomPath_InvalidCUE_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "bad.cue")
	if err := os.WriteFile(cfgPath, []byte("catalog: {timeout_seconds: \"soon\"}\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: types.FilesystemPath(cfgPath)})
	if err == nil {
		t.Fatal("loadWithOptions() should reject non-integer timeout_seconds")
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "unknown.cue")
	if err := os.WriteFile(cfgPath, []byte("catalogue: {}\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: types.FilesystemPath(cfgPath)})
	if err == nil {
		t.Fatal("loadWithOptions() should reject unknown top-level fields")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	restore := testutil.MustSetenv(t, "SHED_CATALOG_CHANNEL", "env-channel")
	defer restore()

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: types.FilesystemPath(t.TempDir())})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if cfg.Catalog.Channel != "env-channel" {
		t.Errorf("Catalog.Channel = %q, want env override env-channel", cfg.Catalog.Channel)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	SetConfigDirOverride(tmpDir)
	defer Reset()

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}

	cfgPath := filepath.Join(tmpDir, ConfigFileName+"."+ConfigFileExt)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), string(DefaultCatalogURL)) {
		t.Errorf("default config missing catalog URL, got:\n%s", data)
	}

	// Second call is a no-op, not an overwrite.
	if err := os.WriteFile(cfgPath, []byte("ui: verbose: true\n"), 0o644); err != nil {
		t.Fatalf("failed to modify config: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() second call returned error: %v", err)
	}
	data, _ = os.ReadFile(cfgPath)
	if !strings.Contains(string(data), "verbose: true") {
		t.Error("CreateDefaultConfig() overwrote an existing config file")
	}
}

func TestGenerateCUE_Config(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shell = "/bin/fish"
	cfg.Catalog.Overlays = []OverlayPath{"overlays/local.yaml"}

	out := GenerateCUE(cfg)

	for _, want := range []string{
		`url: "` + string(DefaultCatalogURL) + `"`,
		`channel: "` + string(DefaultCatalogChannel) + `"`,
		`"overlays/local.yaml"`,
		`shell: "/bin/fish"`,
		`color_scheme: "auto"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateCUE() missing %q, got:\n%s", want, out)
		}
	}
}

func TestConstants(t *testing.T) {
	if AppName != "shed" {
		t.Errorf("AppName = %q, want shed", AppName)
	}
	if ConfigFileName+"."+ConfigFileExt != "config.cue" {
		t.Errorf("config file name = %q, want config.cue", ConfigFileName+"."+ConfigFileExt)
	}
}
