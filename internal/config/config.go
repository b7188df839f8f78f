// Package config loads client settings from an optional YAML file under
// ~/.coursetide with COURSETIDE_* environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const defaultAPIURL = "http://localhost:8080/api"

// Config holds everything the client needs at startup.
type Config struct {
	APIURL   string `mapstructure:"api_url"`
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

// Load reads ~/.coursetide/config.yaml if present, then applies environment
// overrides. A missing config file is not an error.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: resolve home dir: %w", err)
	}
	return LoadFrom(filepath.Join(home, ".coursetide"))
}

// LoadFrom loads configuration from config.yaml inside dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("COURSETIDE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read %s: %w", dir, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("log_file", filepath.Join(dir, "coursetide.log"))
	v.SetDefault("log_level", "info")
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("config: api_url must start with http:// or https://, got %q", c.APIURL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	// Trailing slashes double up when joined with request paths.
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return nil
}
