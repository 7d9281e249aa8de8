// Package config implements the configuration loader (A1): an optional YAML
// file overlaid with environment variables, grounded on the teacher's
// config-loader-env-yaml mini.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the simulator's node-connection and ambient settings.
type Config struct {
	RPCURL   string         `yaml:"rpc_url"`
	Log      LogConfig      `yaml:"log"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// LogConfig controls internal/logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ResolverConfig controls internal/tokenmeta and internal/rpcclient.
type ResolverConfig struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	Retries   int           `yaml:"retries"`
}

// Load reads filename if present, substitutes ${VAR}/${VAR:-default}
// environment references into its string values, applies defaults, and
// overlays RPC_URL/EVMSIM_LOG_LEVEL. A missing file is not an error — the
// simulator's defaults and environment variables alone are enough to run.
func Load(filename string) (*Config, error) {
	cfg := &Config{}

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			substituted := substituteEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(substituted), cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", filename, err)
			}
		case os.IsNotExist(err):
			// Absence is not an error (§4.8).
		default:
			return nil, fmt.Errorf("reading config %s: %w", filename, err)
		}
	}

	cfg.applyDefaults()

	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("EVMSIM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values, leaving unmatched references untouched.
func substituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		varName := parts[1]
		defaultValue := parts[3]

		if value := os.Getenv(varName); value != "" {
			return value
		}
		if defaultValue != "" {
			return defaultValue
		}
		return match
	})
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Resolver.CacheSize == 0 {
		c.Resolver.CacheSize = 1024
	}
	if c.Resolver.CacheTTL == 0 {
		c.Resolver.CacheTTL = 5 * time.Minute
	}
	if c.Resolver.Retries == 0 {
		c.Resolver.Retries = 1
	}
}
