package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "nested", "config.toml")

	want := Default()
	want.Listen = "127.0.0.1:8080"
	want.FetchTimeout = Duration{5 * time.Second}
	want.LogLevel = "debug"

	if err := Write(cfgPath, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(cfgPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != want {
		t.Errorf("config mismatch:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestRead_Missing(t *testing.T) {
	conf, err := Read(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
	if conf != Default() {
		t.Errorf("expected defaults on missing file, got %+v", conf)
	}
}

func TestRead_PartialKeepsDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	data := "listen = \":9000\"\nfetch_timeout = \"1m30s\"\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	conf, err := Read(cfgPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if conf.Listen != ":9000" {
		t.Errorf("listen = %q, want :9000", conf.Listen)
	}
	if conf.FetchTimeout.Duration != 90*time.Second {
		t.Errorf("fetch_timeout = %s, want 1m30s", conf.FetchTimeout)
	}
	if conf.LogLevel != "info" || conf.ShutdownTimeout != Default().ShutdownTimeout {
		t.Errorf("expected remaining defaults, got %+v", conf)
	}
}

func TestRead_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{"bad duration", `fetch_timeout = "soon"`, "failed to decode"},
		{"bad toml", `listen = `, "failed to decode"},
		{"empty listen", `listen = ""`, "listen address is empty"},
		{"negative timeout", `shutdown_timeout = "-1s"`, "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(cfgPath, []byte(tt.data), 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			_, err := Read(cfgPath)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultPath(); got != "/xdg/sitefeed/config.toml" {
		t.Errorf("DefaultPath() = %q with XDG_CONFIG_HOME", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/user")
	if got := DefaultPath(); got != "/home/user/.config/sitefeed/config.toml" {
		t.Errorf("DefaultPath() = %q with HOME", got)
	}

	t.Setenv(EnvPath, "/etc/sitefeed.toml")
	if got := DefaultPath(); got != "/etc/sitefeed.toml" {
		t.Errorf("DefaultPath() = %q with %s", got, EnvPath)
	}
}
