// Package config loads the atlantis configuration.
//
// The configuration file uses human-readable JSON (JSON with comments and
// trailing commas) as implemented by github.com/tailscale/hujson.
package config

import (
	"encoding/json"
	"os"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/qiudaomao/atlantis/internal/injector"
	"github.com/qiudaomao/atlantis/internal/urlsession"
	"github.com/tailscale/hujson"
)

// Config contains the atlantis configuration.
type Config struct {
	// RuntimeVersion is the version of the emulated runtime.
	RuntimeVersion int `json:"runtime_version"`

	// AssertUnexpectedShapes makes hooks panic on unexpected arguments.
	AssertUnexpectedShapes bool `json:"assert_unexpected_shapes"`

	// LogLevel is one of "debug", "info", "warn", "error", "fatal".
	LogLevel string `json:"log_level"`

	// RecordFile is the OPTIONAL file where we append JSONL records.
	RecordFile string `json:"record_file"`

	// MetricsAddress is the OPTIONAL address where we serve /metrics.
	MetricsAddress string `json:"metrics_address"`

	// DisabledHooks lists the hook groups not to install.
	DisabledHooks []string `json:"disabled_hooks"`
}

// ErrUnknownHook means DisabledHooks contains an unknown hook group.
var ErrUnknownHook = errors.New("config: unknown hook group")

// ErrInvalidRuntimeVersion means RuntimeVersion is not positive.
var ErrInvalidRuntimeVersion = errors.New("config: invalid runtime version")

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		RuntimeVersion: urlsession.LatestVersion,
		LogLevel:       "info",
	}
}

// Load reads the configuration from path. A missing file is not an
// error and yields the default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return Parse(data)
}

// Parse parses the configuration. Missing fields take their default value.
func Parse(data []byte) (*Config, error) {
	data, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parsing json")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating")
	}
	return c, nil
}

var knownHooks = map[string]bool{
	injector.HookResume:           true,
	injector.HookResponseReceived: true,
	injector.HookDataReceived:     true,
	injector.HookCompleted:        true,
	injector.HookUpload:           true,
	injector.HookWebSocketSend:    true,
	injector.HookWebSocketReceive: true,
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.RuntimeVersion <= 0 {
		return errors.Wrapf(ErrInvalidRuntimeVersion, "%d", c.RuntimeVersion)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, name := range c.DisabledHooks {
		if !knownHooks[name] {
			return errors.Wrapf(ErrUnknownHook, "%q", name)
		}
	}
	return nil
}

// Level returns the apex/log level. Call this method after Validate.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
