package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load("")

	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("port = %d, want %d", cfg.HTTPPort, DefaultHTTPPort)
	}
	if cfg.JPEGQuality != DefaultJPEGQuality {
		t.Errorf("jpeg quality = %d, want %d", cfg.JPEGQuality, DefaultJPEGQuality)
	}
	if cfg.RenderWidth != DefaultRenderWidth || cfg.RenderHeight != DefaultRenderHeight {
		t.Errorf("render size = %dx%d", cfg.RenderWidth, cfg.RenderHeight)
	}
	if cfg.CommandTimeout != DefaultCommandTimeout {
		t.Errorf("command timeout = %v, want %v", cfg.CommandTimeout, DefaultCommandTimeout)
	}
	if cfg.ConnectBudget != DefaultConnectBudget {
		t.Errorf("connect budget = %v, want %v", cfg.ConnectBudget, DefaultConnectBudget)
	}
	if cfg.StatusInterval != DefaultStatusInterval {
		t.Errorf("status interval = %v, want %v", cfg.StatusInterval, DefaultStatusInterval)
	}
	if want := runtime.GOOS != "windows"; cfg.EventsEnabled != want {
		t.Errorf("events enabled = %v on %s, want %v", cfg.EventsEnabled, runtime.GOOS, want)
	}
	if cfg.SocketDir != os.TempDir() {
		t.Errorf("socket dir = %q", cfg.SocketDir)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpvbridge.toml")
	data := `
http_port = 9100
jpeg_quality = 55
events_enabled = false
engine_path = "/opt/mpv/bin/mpv"
window_title = "living room"
connect_budget_ms = 1500
command_timeout_ms = 750
status_interval_ms = 250
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.HTTPPort != 9100 {
		t.Errorf("port = %d, want 9100", cfg.HTTPPort)
	}
	if cfg.JPEGQuality != 55 {
		t.Errorf("jpeg quality = %d, want 55", cfg.JPEGQuality)
	}
	if cfg.EventsEnabled {
		t.Error("events_enabled = false not honored")
	}
	if cfg.EnginePath != "/opt/mpv/bin/mpv" {
		t.Errorf("engine path = %q", cfg.EnginePath)
	}
	if cfg.WindowTitle != "living room" {
		t.Errorf("window title = %q", cfg.WindowTitle)
	}
	if cfg.ConnectBudget != 1500*time.Millisecond {
		t.Errorf("connect budget = %v, want 1.5s", cfg.ConnectBudget)
	}
	if cfg.CommandTimeout != 750*time.Millisecond {
		t.Errorf("command timeout = %v, want 750ms", cfg.CommandTimeout)
	}
	if cfg.StatusInterval != 250*time.Millisecond {
		t.Errorf("status interval = %v, want 250ms", cfg.StatusInterval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpvbridge.toml")
	if err := os.WriteFile(path, []byte("http_port = 9100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MPVBRIDGE_HTTP_PORT", "9200")
	t.Setenv("MPVBRIDGE_EVENTS_ENABLED", "false")

	cfg := Load(path)
	if cfg.HTTPPort != 9200 {
		t.Errorf("port = %d, env override lost", cfg.HTTPPort)
	}
	if cfg.EventsEnabled {
		t.Error("env bool override lost")
	}
}

func TestEnvMalformedValueIgnored(t *testing.T) {
	t.Setenv("MPVBRIDGE_HTTP_PORT", "not-a-number")

	cfg := Load("")
	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("port = %d, want default for malformed env", cfg.HTTPPort)
	}
}

func TestValidateClampsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpvbridge.toml")
	data := `
http_port = -1
jpeg_quality = 500
render_width = 0
render_height = -5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("port = %d, want default", cfg.HTTPPort)
	}
	if cfg.JPEGQuality != DefaultJPEGQuality {
		t.Errorf("jpeg quality = %d, want default", cfg.JPEGQuality)
	}
	if cfg.RenderWidth != DefaultRenderWidth || cfg.RenderHeight != DefaultRenderHeight {
		t.Errorf("render size = %dx%d, want defaults", cfg.RenderWidth, cfg.RenderHeight)
	}
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("port = %d, want default", cfg.HTTPPort)
	}
}
