package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultHTTPPort       = 8900
	DefaultUUIDPath       = ".local/mpvbridge/instance_uuid.txt"
	DefaultCommandTimeout = 5 * time.Second
	DefaultConnectBudget  = 5 * time.Second
	DefaultStatusInterval = 100 * time.Millisecond
	DefaultRenderWidth    = 1920
	DefaultRenderHeight   = 1080
	DefaultJPEGQuality    = 80
)

type Config struct {
	// Engine supervision
	EnginePath     string `toml:"engine_path"` // empty: discover bundled/system mpv
	SocketDir      string `toml:"socket_dir"`
	EventsEnabled  bool   `toml:"events_enabled"`
	ExternalWindow bool   `toml:"external_window"` // spawn the engine at startup
	WindowTitle    string `toml:"window_title"`    // standalone window only

	// Offscreen rendering
	RenderWidth  int `toml:"render_width"`
	RenderHeight int `toml:"render_height"`
	JPEGQuality  int `toml:"jpeg_quality"`

	// Host bridge
	HTTPPort int    `toml:"http_port"`
	UUIDPath string `toml:"uuid_path"`

	ConnectBudgetMS  int `toml:"connect_budget_ms"`
	CommandTimeoutMS int `toml:"command_timeout_ms"`
	StatusIntervalMS int `toml:"status_interval_ms"`

	ConnectBudget  time.Duration `toml:"-"`
	CommandTimeout time.Duration `toml:"-"`
	StatusInterval time.Duration `toml:"-"`
}

// Load builds the configuration from an optional TOML file layered under
// environment overrides. A missing file is not an error.
func Load(path string) Config {
	// Blocking reads on a duplicated pipe handle hang the whole process on
	// Windows, so the event reader defaults off there.
	cfg := Config{
		SocketDir:     os.TempDir(),
		EventsEnabled: runtime.GOOS != "windows",
		RenderWidth:   DefaultRenderWidth,
		RenderHeight:  DefaultRenderHeight,
		JPEGQuality:   DefaultJPEGQuality,
		HTTPPort:      DefaultHTTPPort,
		UUIDPath:      os.Getenv("HOME") + "/" + DefaultUUIDPath,
	}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = toml.Unmarshal(data, &cfg)
		}
	}

	cfg.EnginePath = envVar("MPVBRIDGE_ENGINE_PATH", cfg.EnginePath)
	cfg.SocketDir = envVar("MPVBRIDGE_SOCKET_DIR", cfg.SocketDir)
	cfg.EventsEnabled = envVar("MPVBRIDGE_EVENTS_ENABLED", cfg.EventsEnabled)
	cfg.ExternalWindow = envVar("MPVBRIDGE_EXTERNAL_WINDOW", cfg.ExternalWindow)
	cfg.WindowTitle = envVar("MPVBRIDGE_WINDOW_TITLE", cfg.WindowTitle)
	cfg.JPEGQuality = envVar("MPVBRIDGE_JPEG_QUALITY", cfg.JPEGQuality)
	cfg.HTTPPort = envVar("MPVBRIDGE_HTTP_PORT", cfg.HTTPPort)
	cfg.UUIDPath = envVar("MPVBRIDGE_UUID_PATH", cfg.UUIDPath)
	cfg.ConnectBudgetMS = envVar("MPVBRIDGE_CONNECT_BUDGET_MS", cfg.ConnectBudgetMS)
	cfg.CommandTimeoutMS = envVar("MPVBRIDGE_COMMAND_TIMEOUT_MS", cfg.CommandTimeoutMS)
	cfg.StatusIntervalMS = envVar("MPVBRIDGE_STATUS_INTERVAL_MS", cfg.StatusIntervalMS)

	cfg.ConnectBudget = DefaultConnectBudget
	if cfg.ConnectBudgetMS > 0 {
		cfg.ConnectBudget = time.Duration(cfg.ConnectBudgetMS) * time.Millisecond
	}
	cfg.CommandTimeout = DefaultCommandTimeout
	if cfg.CommandTimeoutMS > 0 {
		cfg.CommandTimeout = time.Duration(cfg.CommandTimeoutMS) * time.Millisecond
	}
	cfg.StatusInterval = DefaultStatusInterval
	if cfg.StatusIntervalMS > 0 {
		cfg.StatusInterval = time.Duration(cfg.StatusIntervalMS) * time.Millisecond
	}

	cfg.validate()
	return cfg
}

func envVar[T ~string | ~bool | ~int](key string, def T) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	switch any(def).(type) {
	case string:
		return any(v).(T)
	case bool:
		if b, err := strconv.ParseBool(v); err == nil {
			return any(b).(T)
		}
	case int:
		if i, err := strconv.Atoi(v); err == nil {
			return any(i).(T)
		}
	}
	return def
}

// validate normalizes out-of-range values back to their defaults.
func (c *Config) validate() {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		c.HTTPPort = DefaultHTTPPort
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.RenderWidth <= 0 || c.RenderHeight <= 0 {
		c.RenderWidth = DefaultRenderWidth
		c.RenderHeight = DefaultRenderHeight
	}
	if c.SocketDir == "" {
		c.SocketDir = os.TempDir()
	}
}
