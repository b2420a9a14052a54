// Package config loads the command line configuration in three layers:
// built-in defaults, an optional YAML file, then MODELADMIN_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-modeladmin/pkg/model"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "MODELADMIN_"

// FileEnv names the variable holding the YAML file path.
const FileEnv = EnvPrefix + "CONFIG_FILE"

// Session store backends.
const (
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the resolved configuration.
type Config struct {
	APIURL               string        `yaml:"api_url" env:"API_URL"`
	Timeout              time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Debug                bool          `yaml:"debug" env:"DEBUG"`
	PageSize             int           `yaml:"page_size" env:"PAGE_SIZE"`
	Locales              []string      `yaml:"locales" env:"LOCALES" envSeparator:","`
	LogLevel             string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat            string        `yaml:"log_format" env:"LOG_FORMAT"`
	SessionStore         string        `yaml:"session_store" env:"SESSION_STORE"`
	KeyringService       string        `yaml:"keyring_service" env:"KEYRING_SERVICE"`
	RefreshFailureLimit  int           `yaml:"refresh_failure_limit" env:"REFRESH_FAILURE_LIMIT"`
	RefreshFailureWindow time.Duration `yaml:"refresh_failure_window" env:"REFRESH_FAILURE_WINDOW"`
	RelationConcurrency  int           `yaml:"relation_concurrency" env:"RELATION_CONCURRENCY"`
	// RelationRate caps relation fetches per second; zero disables pacing.
	RelationRate float64       `yaml:"relation_rate" env:"RELATION_RATE"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	Tracing      bool          `yaml:"tracing" env:"TRACING"`
	// PresetFile points at local model overrides.
	PresetFile string `yaml:"preset_file" env:"PRESET_FILE"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:               "http://localhost:8000",
		Timeout:              30 * time.Second,
		PageSize:             15,
		LogLevel:             "info",
		LogFormat:            FormatText,
		SessionStore:         StoreKeyring,
		KeyringService:       "go-modeladmin",
		RefreshFailureLimit:  3,
		RefreshFailureWindow: 30 * time.Second,
		RelationConcurrency:  1,
		CacheTTL:             5 * time.Minute,
	}
}

// Load resolves the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(Environ())
}

// LoadFrom resolves the configuration from the given environment. The YAML
// file named by MODELADMIN_CONFIG_FILE, when set, sits between the defaults
// and the environment.
func LoadFrom(environment map[string]string) (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(environment[FileEnv]); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environment,
	}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects malformed URLs, unknown enumerations and non-positive
// sizes.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL))
	}
	positive := []struct {
		name  string
		value int64
	}{
		{"timeout", int64(c.Timeout)},
		{"page_size", int64(c.PageSize)},
		{"refresh_failure_limit", int64(c.RefreshFailureLimit)},
		{"refresh_failure_window", int64(c.RefreshFailureWindow)},
		{"relation_concurrency", int64(c.RelationConcurrency)},
		{"cache_ttl", int64(c.CacheTTL)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.name))
		}
	}
	if c.RelationRate < 0 {
		errs = append(errs, errors.New("relation_rate must not be negative"))
	}
	switch c.LogFormat {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	switch c.SessionStore {
	case StoreKeyring, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("session_store %q must be keyring or memory", c.SessionStore))
	}
	if _, err := model.NewLocaleSet(c.Locales...); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LocaleSet returns the configured translation locales.
func (c Config) LocaleSet() model.LocaleSet {
	set, _ := model.NewLocaleSet(c.Locales...)
	return set
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
