package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/BurntSushi/toml"
)

const baseCfgPath = "sitefeed/config.toml"

// EnvPath names the environment variable that overrides the config location
const EnvPath = "SITEFEED_CONFIG"

// Config holds process-wide settings. Site URLs, selectors and the detail
// fetch ceiling are compiled in and intentionally not configurable here.
type Config struct {
	Listen          string   `toml:"listen"`
	UserAgent       string   `toml:"user_agent"`
	FetchTimeout    Duration `toml:"fetch_timeout"`    // Per request to a scraped site
	ShutdownTimeout Duration `toml:"shutdown_timeout"` // Grace period for in-flight requests
	LogLevel        string   `toml:"log_level"`        // debug, info, warn or error
}

// Duration is a time.Duration that reads and writes as "30s" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	return nil
}

// Validate reports settings that cannot work
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.FetchTimeout.Duration < 0 {
		return fmt.Errorf("fetch_timeout must not be negative, got %s", c.FetchTimeout)
	}
	if c.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("shutdown_timeout must not be negative, got %s", c.ShutdownTimeout)
	}
	return nil
}

func Default() Config {
	return Config{
		Listen:          ":3000",
		UserAgent:       "Mozilla/5.0 (compatible; sitefeed/1.0)",
		FetchTimeout:    Duration{30 * time.Second},
		ShutdownTimeout: Duration{10 * time.Second},
		LogLevel:        "info",
	}
}

// DefaultPath returns $SITEFEED_CONFIG when set, otherwise the XDG location
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}

	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	panic("unclear where to search for the config file")
}
