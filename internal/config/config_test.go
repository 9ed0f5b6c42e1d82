package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wpasc.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("EDITOR", "vi")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DB != filepath.Join(home, ".wp-asciidoc.db") {
		t.Errorf("unexpected db path %q", cfg.DB)
	}
	if cfg.LogFile != filepath.Join(home, ".wpasc", "wpasc.log") {
		t.Errorf("unexpected log file %q", cfg.LogFile)
	}
	if cfg.PullDelay != 100*time.Millisecond || cfg.PageSize != 100 || cfg.WatchDebounce != 500*time.Millisecond {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Editor != "vi" {
		t.Errorf("expected editor from EDITOR, got %q", cfg.Editor)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
db: ~/blogs.db
editor: "code --wait"
pull_delay: 2s
page_size: 50
asciidoc:
  source-highlighter: pygments
  icons: font
`)

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.DB != filepath.Join(home, "blogs.db") {
		t.Errorf("expected ~ expansion, got %q", cfg.DB)
	}
	if cfg.Editor != "code --wait" {
		t.Errorf("unexpected editor %q", cfg.Editor)
	}
	if cfg.PullDelay != 2*time.Second || cfg.PageSize != 50 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.Asciidoc["icons"] != "font" {
		t.Errorf("unexpected attributes: %v", cfg.Asciidoc)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WPASC_PAGE_SIZE", "25")
	path := writeConfig(t, "page_size: 50\n")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("expected env override 25, got %d", cfg.PageSize)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		path string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.yaml")},
		{"zero page size", writeConfig(t, "page_size: 0\n")},
		{"negative delay", writeConfig(t, "pull_delay: -1s\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(viper.New(), tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env must not fail: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WPASC_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("WPASC_TEST_DOTENV", "")
	os.Unsetenv("WPASC_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("WPASC_TEST_DOTENV"); got != "loaded" {
		t.Errorf("expected loaded, got %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	tests := map[string]string{
		"~":         "/home/me",
		"~/x.db":    "/home/me/x.db",
		"/abs/x.db": "/abs/x.db",
		"rel/x.db":  "rel/x.db",
	}
	for in, want := range tests {
		if got := ExpandHome(in, "/home/me"); got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}
