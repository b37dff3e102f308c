// Package config loads the protocol selection of a host from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/providers/base"
)

// ProtocolAuto resolves to native or text from the provider.
const ProtocolAuto = "auto"

// Environment overrides.
const (
	EnvProtocol = "DISPATCH_PROTOCOL"
	EnvProvider = "DISPATCH_PROVIDER"
)

// Log configures the clue logger of the host.
type Log struct {
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`
}

// Config selects the dispatcher.
type Config struct {
	Protocol        string   `yaml:"protocol"`
	Provider        string   `yaml:"provider"`
	NativeProviders []string `yaml:"native_providers"`
	Log             Log      `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Protocol:        ProtocolAuto,
		Provider:        "openai",
		NativeProviders: []string{"openai", "anthropic"},
		Log:             Log{Format: "terminal"},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := base.LoadEnv(); err != nil {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	if v := os.Getenv(EnvProtocol); v != "" {
		cfg.Protocol = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Provider = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes and checks the protocol.
func (c *Config) Validate() error {
	c.Protocol = strings.ToLower(strings.TrimSpace(c.Protocol))
	if c.Protocol == "" {
		c.Protocol = ProtocolAuto
	}
	if c.Protocol == ProtocolAuto {
		return nil
	}
	if _, err := dispatch.ParseProtocol(c.Protocol); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NativeToolCalling reports whether the native protocol is selected. "auto"
// picks native when the provider is listed in NativeProviders.
func (c Config) NativeToolCalling() bool {
	switch c.Protocol {
	case string(dispatch.ProtocolNative):
		return true
	case string(dispatch.ProtocolText):
		return false
	default:
		return slices.Contains(c.NativeProviders, strings.ToLower(c.Provider))
	}
}

// Dispatcher builds the dispatcher selected by c.
func (c Config) Dispatcher(opts ...dispatch.Option) dispatch.Dispatcher {
	return dispatch.ForProvider(c.NativeToolCalling(), opts...)
}
