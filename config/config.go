/*
Package config loads process settings for the appraisal server and CLI.

SOURCES (later wins):
  1. Defaults
  2. .appraisalrc.json / .appraisalrc.yaml / .appraisalrc.yml in the working directory
  3. APPRAISAL_* environment variables (APPRAISAL_DB_PATH, APPRAISAL_LOG_LEVEL, ...)
  4. Command-line flags bound by the caller

Domain configuration (masters, scales, templates, budgets) is NOT read
here; see the factory package.
*/
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the process configuration.
type Config struct {
	Port           int      `mapstructure:"port"`
	DBPath         string   `mapstructure:"db_path"`
	LogLevel       string   `mapstructure:"log_level"`
	LogFormat      string   `mapstructure:"log_format"`
	ConfigGlob     []string `mapstructure:"config_glob"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ConfigFiles are tried in order; the first one found is read.
var ConfigFiles = []string{".appraisalrc.json", ".appraisalrc.yaml", ".appraisalrc.yml"}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "./data/appraisal.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("config_glob", []string{"configs/**/*.yaml", "configs/**/*.json"})
	v.SetDefault("allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetEnvPrefix("APPRAISAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional rc file into v and unmarshals the result.
func Load(v *viper.Viper) (*Config, error) {
	for _, path := range ConfigFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", path)
		}
		break
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return errors.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return errors.Errorf("invalid log format %q. Must be 'console' or 'json'", c.LogFormat)
	}
	return nil
}

// NewLogger builds a zap logger: production encoding for "json", the
// development console encoder otherwise.
func NewLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	zapCfg.Level = lvl
	return zapCfg.Build()
}
