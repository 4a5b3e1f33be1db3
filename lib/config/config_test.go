package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// TestLaunchDefaultsRoundTrip verifies every key setDefaults() writes is
// read back by NewLaunchConfigFromViper() under the same name.
func TestLaunchDefaultsRoundTrip(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	setDefaults()

	cfg := NewLaunchConfigFromViper()
	defaults := DefaultLaunchConfig()

	if cfg.BaseDir != defaults.BaseDir {
		t.Errorf("BaseDir mismatch: got %q, want %q", cfg.BaseDir, defaults.BaseDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if !cfg.WatchConfig {
		t.Error("WatchConfig should default to true")
	}
}

// TestLaunchViperOverride verifies overrides flow through the same keys the
// defaults use.
func TestLaunchViperOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	setDefaults()
	viper.Set("log_level", "debug")
	viper.Set("watch_config", false)

	cfg := NewLaunchConfigFromViper()
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.WatchConfig {
		t.Error("WatchConfig override to false was not read back")
	}
}

// TestInitConfigCreatesDefaultLaunchFile verifies first run writes the
// default launch file under the base directory.
func TestInitConfigCreatesDefaultLaunchFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	home := t.TempDir()
	t.Setenv("HOME", home)
	CfgFile = ""

	InitConfig()

	wantFile := filepath.Join(home, CASTWAVE_BASE_DIR, "castwave.yaml")
	if _, err := os.Stat(wantFile); err != nil {
		t.Fatalf("expected launch file at %q: %v", wantFile, err)
	}

	cfg := NewLaunchConfigFromViper()
	if cfg.BaseDir != filepath.Join(home, CASTWAVE_BASE_DIR) {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, filepath.Join(home, CASTWAVE_BASE_DIR))
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

// TestInitConfigReadsExplicitFile verifies a launch file given on the
// command line wins over the default location.
func TestInitConfigReadsExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "launch.yaml")
	content := "log_level: debug\nwatch_config: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	CfgFile = path
	t.Cleanup(func() { CfgFile = "" })
	InitConfig()

	cfg := NewLaunchConfigFromViper()
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.WatchConfig {
		t.Error("WatchConfig should be false from the explicit file")
	}
	if cfg.BaseDir == "" {
		t.Error("BaseDir should fall back to the default when the file omits it")
	}
}

// TestBuildCastwaveDirPath verifies the default base directory lands under
// the user home.
func TestBuildCastwaveDirPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := BuildCastwaveDirPath(); got != filepath.Join(home, CASTWAVE_BASE_DIR) {
		t.Errorf("BuildCastwaveDirPath() = %q, want %q", got, filepath.Join(home, CASTWAVE_BASE_DIR))
	}
}
