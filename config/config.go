// Package config loads the TOML configuration shared by the client and the
// jlsctl command.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/loadbalance"
	"java-lsp-rpc/protocol"
)

// Discovery locates a backend through a registry instead of a fixed address.
type Discovery struct {
	// Kind is "etcd" or "static".
	Kind string `toml:"kind"`
	// Endpoints are etcd servers for kind "etcd", backend addresses for
	// kind "static".
	Endpoints []string `toml:"endpoints"`
	Prefix    string   `toml:"prefix"`
	Service   string   `toml:"service"`
	Balancer  string   `toml:"balancer"`
	Workspace string   `toml:"workspace"`
}

// Backend says how to reach the language backend. Exactly one of Command,
// Address and Discovery.Kind is set.
type Backend struct {
	Command   string    `toml:"command"`
	Args      []string  `toml:"args"`
	Address   string    `toml:"address"`
	Network   string    `toml:"network"`
	Discovery Discovery `toml:"discovery"`
}

type Channel struct {
	Framing        string        `toml:"framing"`
	RequestTimeout time.Duration `toml:"requestTimeout"`
	CancelNotify   *bool         `toml:"cancelNotify"`
	MaxFrameSize   int           `toml:"maxFrameSize"`
}

// NotifyCancel reports whether abandoned calls send $/cancelRequest.
func (c Channel) NotifyCancel() bool {
	return c.CancelNotify == nil || *c.CancelNotify
}

type Limits struct {
	RatePerSecond float64 `toml:"ratePerSecond"`
	Burst         int     `toml:"burst"`
	Retries       int     `toml:"retries"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type Config struct {
	Backend Backend `toml:"backend"`
	Channel Channel `toml:"channel"`
	Limits  Limits  `toml:"limits"`
	Logging Logging `toml:"logging"`
}

// Default returns a configuration with every default applied and no backend.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown config key %q", undecoded[0].String())
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Backend.Network == "" {
		cfg.Backend.Network = "tcp"
	}
	if cfg.Backend.Discovery.Service == "" {
		cfg.Backend.Discovery.Service = "jdtls"
	}
	if cfg.Channel.Framing == "" {
		cfg.Channel.Framing = "header"
	}
	if cfg.Channel.RequestTimeout == 0 {
		cfg.Channel.RequestTimeout = 30 * time.Second
	}
	if cfg.Channel.MaxFrameSize == 0 {
		cfg.Channel.MaxFrameSize = protocol.DefaultMaxFrameSize
	}
	if cfg.Limits.Burst == 0 {
		cfg.Limits.Burst = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks a configuration with defaults already applied.
func (cfg *Config) Validate() error {
	sources := 0
	for _, set := range []bool{cfg.Backend.Command != "", cfg.Backend.Address != "", cfg.Backend.Discovery.Kind != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("backend: exactly one of command, address or discovery.kind is required")
	}

	switch cfg.Backend.Discovery.Kind {
	case "":
	case "etcd", "static":
		if len(cfg.Backend.Discovery.Endpoints) == 0 {
			return errors.New("backend.discovery.endpoints required")
		}
		if _, err := loadbalance.ByName(cfg.Backend.Discovery.Balancer, cfg.Backend.Discovery.Workspace); err != nil {
			return errors.Errorf("backend.discovery.balancer: %w", err)
		}
	default:
		return errors.Errorf("backend.discovery.kind %q: want etcd or static", cfg.Backend.Discovery.Kind)
	}

	if _, err := protocol.NewFramer(cfg.Channel.Framing, cfg.Channel.MaxFrameSize); err != nil {
		return errors.Errorf("channel.framing: %w", err)
	}
	if cfg.Channel.RequestTimeout < 0 {
		return errors.New("channel.requestTimeout must not be negative")
	}
	if cfg.Limits.RatePerSecond < 0 || cfg.Limits.Burst < 0 || cfg.Limits.Retries < 0 {
		return errors.New("limits must not be negative")
	}
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return errors.Errorf("logging.level: %w", err)
	}
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("logging.format %q: want console or json", cfg.Logging.Format)
	}
	return nil
}
