package storage

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("absolute path", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfg := &Config{DataDir: tmpDir}

		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if !filepath.IsAbs(cfg.DataDir) {
			t.Errorf("DataDir not absolute: %s", cfg.DataDir)
		}
	})

	t.Run("tilde expansion", func(t *testing.T) {
		cfg := &Config{DataDir: "~/netspectre-test"}

		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if strings.HasPrefix(cfg.DataDir, "~/") {
			t.Errorf("Tilde not expanded: %s", cfg.DataDir)
		}
	})

	t.Run("relative path", func(t *testing.T) {
		cfg := &Config{DataDir: "./netspectre-data"}

		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if !filepath.IsAbs(cfg.DataDir) {
			t.Errorf("DataDir not absolute: %s", cfg.DataDir)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		cfg := &Config{DataDir: "  "}

		err := cfg.Validate()
		if !IsInvalidInput(err) {
			t.Errorf("Validate() = %v, expected invalid input", err)
		}
	})
}

func TestConfig_Paths(t *testing.T) {
	cfg := &Config{DataDir: filepath.FromSlash("/data")}

	if got, want := cfg.ProfilesPath(), filepath.Join("/data", "profiles"); got != want {
		t.Errorf("ProfilesPath() = %q, expected %q", got, want)
	}
	if got, want := cfg.BaselinesPath(), filepath.Join("/data", "baselines"); got != want {
		t.Errorf("BaselinesPath() = %q, expected %q", got, want)
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("NETSPECTRE_DATA_DIR", "/custom/data")

		dir, err := DefaultDataDir()
		if err != nil {
			t.Fatalf("DefaultDataDir() failed: %v", err)
		}
		if dir != "/custom/data" {
			t.Errorf("DefaultDataDir() = %q, expected %q", dir, "/custom/data")
		}
	})

	t.Run("platform default", func(t *testing.T) {
		t.Setenv("NETSPECTRE_DATA_DIR", "")

		cfg, err := DefaultConfig()
		if err != nil {
			t.Fatalf("DefaultConfig() failed: %v", err)
		}
		if !strings.Contains(strings.ToLower(cfg.DataDir), "netspectre") {
			t.Errorf("DataDir %q does not mention netspectre", cfg.DataDir)
		}
	})
}
