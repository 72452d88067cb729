package offlinegate

import (
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration of the gateway daemon.
// Environment variables override file values.
type FileConfig struct {
	// Origin server the gateway fronts.
	Origin string `yaml:"origin" env:"OFFLINE_GATE_ORIGIN"`
	// Address to listen on.
	Listen string `yaml:"listen" env:"OFFLINE_GATE_LISTEN"`
	// Cache DB file name; "memory" selects the in-memory provider.
	DB string `yaml:"db" env:"OFFLINE_GATE_DB"`
	// Path segment marking API requests.
	APIPathSegment string `yaml:"apiPathSegment" env:"OFFLINE_GATE_API_SEGMENT"`
	// URL schemes never intercepted.
	ExcludedSchemes []string `yaml:"excludedSchemes" env:"OFFLINE_GATE_EXCLUDED_SCHEMES"`
	// Precache manifest: root-relative asset paths.
	Manifest []string `yaml:"manifest" env:"OFFLINE_GATE_MANIFEST"`
	// Path prefix the control surface is mounted on.
	ControlPrefix string `yaml:"controlPrefix" env:"OFFLINE_GATE_CONTROL_PREFIX"`
}

// LoadConfig reads the YAML config file (if filename is non-empty), applies
// environment overrides and fills in defaults.
func LoadConfig(filename string) (FileConfig, error) {
	var config FileConfig
	if filename != "" {
		configBytes, err := os.ReadFile(filename)
		if err != nil {
			return config, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(configBytes, &config); err != nil {
			return config, errors.Wrap(err, "parse config file")
		}
	}
	if err := env.Parse(&config); err != nil {
		return config, errors.Wrap(err, "parse env")
	}
	if config.Listen == "" {
		config.Listen = ":8080"
	}
	if config.DB == "" {
		config.DB = "cache.db"
	}
	if config.APIPathSegment == "" {
		config.APIPathSegment = defaultAPIPathSegment
	}
	if config.ExcludedSchemes == nil {
		config.ExcludedSchemes = defaultExcludedSchemes
	}
	if config.ControlPrefix == "" {
		config.ControlPrefix = "/.offline-gate"
	}
	return config, nil
}

// Validate checks that the configuration can produce a working gateway.
func (c FileConfig) Validate() error {
	if c.Origin == "" {
		return errors.New("origin not configured")
	}
	originURL, err := url.Parse(c.Origin)
	if err != nil {
		return errors.Wrap(err, "parse origin")
	}
	if originURL.Scheme == "" || originURL.Host == "" {
		return errors.Errorf("origin %q must be an absolute URL", c.Origin)
	}
	if originURL.Path != "" && originURL.Path != "/" {
		return errors.Errorf("origin %q must not have a path", c.Origin)
	}
	return Manifest(c.Manifest).Validate()
}
