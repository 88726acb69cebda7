// Package globalconfig defines the narrow configuration contract the
// installer core consumes and a YAML-backed default
// implementation (gopkg.in/yaml.v3 unmarshal, os.ExpandEnv for
// environment-variable interpolation, an embedded
// defaults document merged under anything the user supplies).
package globalconfig

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// duration unmarshals YAML duration strings ("30s", "10m") the way
// time.ParseDuration understands them; yaml.v3 only decodes a bare
// time.Duration field from a numeric scalar, not a unit-suffixed one.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = duration(parsed)
	return nil
}

// Provider is the narrow interface the installer core consumes for
// process-wide settings: install directory, icon directory, desktop
// entry directory, retry count, request timeout. The loader that
// produces a Provider (flags, env, a config file on disk) is the
// caller's concern.
type Provider interface {
	InstallDir() string
	IconDir() string
	DesktopDir() string
	ConfigDir() string
	RetryCount() int
	RequestTimeout() time.Duration
	DownloadTimeout() time.Duration
	Concurrency() int
}

// Config is the YAML-backed default Provider implementation.
type Config struct {
	Install struct {
		Dir string `yaml:"dir"`
	} `yaml:"install"`
	Icons struct {
		Dir string `yaml:"dir"`
	} `yaml:"icons"`
	Desktop struct {
		Dir string `yaml:"dir"`
	} `yaml:"desktop"`
	ConfigDirectory string `yaml:"config_dir"`
	Network         struct {
		RetryCount      int      `yaml:"retry_count"`
		RequestTimeout  duration `yaml:"request_timeout"`
		DownloadTimeout duration `yaml:"download_timeout"`
	} `yaml:"network"`
	InstallConcurrency int `yaml:"concurrency"`
}

//go:embed defaults.yaml
var defaultsYAML []byte

// Default returns the baked-in default configuration: XDG-style
// per-user directories, 3 retries, 30s API timeout, 600s download
// timeout, concurrency 3.
func Default() *Config {
	cfg, err := Load(defaultsYAML)
	if err != nil {
		// The embedded document is a build-time constant; a parse
		// failure here is a packaging bug, not a runtime condition.
		panic(fmt.Sprintf("globalconfig: embedded defaults.yaml is invalid: %v", err))
	}
	cfg.expandAndDefault()
	return cfg
}

// Load parses a YAML configuration document, applying os.ExpandEnv to
// the raw bytes first so entries like "${XDG_DATA_HOME}/aimctl" resolve
// against the environment.
func Load(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	cfg.expandAndDefault()
	return &cfg, nil
}

// LoadFile reads and parses path, falling back to Default() fields for
// anything the file leaves blank.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading global config %s: %w", path, err)
	}
	cfg, err := Load(data)
	if err != nil {
		return nil, err
	}
	cfg.fillDefaults(Default())
	return cfg, nil
}

func (c *Config) expandAndDefault() {
	home, _ := os.UserHomeDir()
	if c.Install.Dir == "" {
		c.Install.Dir = filepath.Join(home, ".local", "bin")
	}
	if c.Icons.Dir == "" {
		c.Icons.Dir = filepath.Join(home, ".local", "share", "icons")
	}
	if c.Desktop.Dir == "" {
		c.Desktop.Dir = filepath.Join(home, ".local", "share", "applications")
	}
	if c.ConfigDirectory == "" {
		c.ConfigDirectory = filepath.Join(home, ".config", "aimctl")
	}
	if c.Network.RetryCount == 0 {
		c.Network.RetryCount = 3
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = duration(30 * time.Second)
	}
	if c.Network.DownloadTimeout == 0 {
		c.Network.DownloadTimeout = duration(600 * time.Second)
	}
	if c.InstallConcurrency == 0 {
		c.InstallConcurrency = 3
	}
}

func (c *Config) fillDefaults(d *Config) {
	if c.Install.Dir == "" {
		c.Install.Dir = d.Install.Dir
	}
	if c.Icons.Dir == "" {
		c.Icons.Dir = d.Icons.Dir
	}
	if c.Desktop.Dir == "" {
		c.Desktop.Dir = d.Desktop.Dir
	}
	if c.ConfigDirectory == "" {
		c.ConfigDirectory = d.ConfigDirectory
	}
	if c.Network.RetryCount == 0 {
		c.Network.RetryCount = d.Network.RetryCount
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = d.Network.RequestTimeout
	}
	if c.Network.DownloadTimeout == 0 {
		c.Network.DownloadTimeout = d.Network.DownloadTimeout
	}
	if c.InstallConcurrency == 0 {
		c.InstallConcurrency = d.InstallConcurrency
	}
}

func (c *Config) InstallDir() string             { return c.Install.Dir }
func (c *Config) IconDir() string                { return c.Icons.Dir }
func (c *Config) DesktopDir() string             { return c.Desktop.Dir }
func (c *Config) ConfigDir() string              { return c.ConfigDirectory }
func (c *Config) RetryCount() int                { return c.Network.RetryCount }
func (c *Config) RequestTimeout() time.Duration  { return time.Duration(c.Network.RequestTimeout) }
func (c *Config) DownloadTimeout() time.Duration { return time.Duration(c.Network.DownloadTimeout) }
func (c *Config) Concurrency() int               { return c.InstallConcurrency }
