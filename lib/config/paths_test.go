package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// TestNewServerPathsCreatesLayout verifies the directory tree comes up with
// the expected names and modes.
func TestNewServerPathsCreatesLayout(t *testing.T) {
	base := filepath.Join(t.TempDir(), "castwave")
	paths, err := NewServerPaths(base)
	if err != nil {
		t.Fatalf("NewServerPaths() error = %v", err)
	}

	if paths.BaseDir() != base {
		t.Errorf("BaseDir() = %q, want %q", paths.BaseDir(), base)
	}
	if paths.ProgramDataPath() != filepath.Join(base, "data") {
		t.Errorf("ProgramDataPath() = %q, want %q", paths.ProgramDataPath(), filepath.Join(base, "data"))
	}

	info, err := os.Stat(paths.ConfigDir())
	if err != nil {
		t.Fatalf("config dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("config dir is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("config dir mode = %04o, want 0700", perm)
	}

	for _, dir := range []string{paths.ProgramDataPath(), paths.LogDir(), paths.CacheDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory at %q (err=%v)", dir, err)
		}
	}
}

// TestNewServerPathsBlankBase verifies the constructor rejects an empty
// base directory.
func TestNewServerPathsBlankBase(t *testing.T) {
	if _, err := NewServerPaths("   "); err == nil {
		t.Error("NewServerPaths should reject a blank base directory")
	}
}

// TestDeriveMetadataPath verifies the override-or-default rule.
func TestDeriveMetadataPath(t *testing.T) {
	tests := []struct {
		name     string
		override string
		want     string
	}{
		{"empty override uses program data", "", filepath.Join("/srv/data", "metadata")},
		{"whitespace override uses program data", "   ", filepath.Join("/srv/data", "metadata")},
		{"override wins verbatim", "/mnt/metadata", "/mnt/metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfiguration()
			cfg.MetadataPath = tt.override
			if got := DeriveMetadataPath(cfg, "/srv/data"); got != tt.want {
				t.Errorf("DeriveMetadataPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDeriveTranscodePath verifies the none-or-subdirectory rule.
func TestDeriveTranscodePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty temp path derives nothing", "", ""},
		{"whitespace temp path derives nothing", "  ", ""},
		{"temp path gains transcodes subdirectory", "/scratch", filepath.Join("/scratch", "transcodes")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := DefaultEncodingOptions()
			enc.TranscodingTempPath = tt.path
			if got := DeriveTranscodePath(enc); got != tt.want {
				t.Errorf("DeriveTranscodePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestPathSlotsRoundTrip verifies the mutable slots hold what was last set.
func TestPathSlotsRoundTrip(t *testing.T) {
	paths, err := NewServerPaths(filepath.Join(t.TempDir(), "castwave"))
	if err != nil {
		t.Fatalf("NewServerPaths() error = %v", err)
	}

	if paths.MetadataPath() != "" {
		t.Errorf("fresh metadata slot = %q, want empty", paths.MetadataPath())
	}

	paths.SetMetadataPath("/mnt/metadata")
	if paths.MetadataPath() != "/mnt/metadata" {
		t.Errorf("MetadataPath() = %q after set", paths.MetadataPath())
	}

	paths.SetTranscodePath("/scratch/transcodes")
	if paths.TranscodePath() != "/scratch/transcodes" {
		t.Errorf("TranscodePath() = %q after set", paths.TranscodePath())
	}

	paths.SetTranscodePath("")
	if paths.TranscodePath() != "" {
		t.Error("clearing the transcode slot should leave it empty")
	}
}

// TestPathSlotsConcurrentAccess exercises the slot lock under parallel
// readers and writers.
func TestPathSlotsConcurrentAccess(t *testing.T) {
	paths, err := NewServerPaths(filepath.Join(t.TempDir(), "castwave"))
	if err != nil {
		t.Fatalf("NewServerPaths() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				paths.SetMetadataPath("/mnt/metadata")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = paths.MetadataPath()
			}
		}()
	}
	wg.Wait()
}
