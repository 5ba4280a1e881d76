package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SETTINGS_STORE_DRIVER.
const EnvPrefix = "SETTINGS"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance so CLI
// flags bound to it take precedence.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v, envPrefix: EnvPrefix}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads configuration. Precedence, highest first: bound flags,
// environment, config file (./settings.yaml, then
// ~/.config/go-settings/settings.yaml), defaults.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("settings")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "go-settings"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the file Load read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("store.driver", "sqlite")
	l.v.SetDefault("store.path", filepath.Join(".settings", "settings.db"))
	l.v.SetDefault("store.gc_interval", "10m")

	l.v.SetDefault("http.addr", "127.0.0.1:8080")
	l.v.SetDefault("http.admin_token", "")
	l.v.SetDefault("http.shutdown_timeout", "10s")
	l.v.SetDefault("http.cors_origins", []string{})
	l.v.SetDefault("http.rate_limit", 5.0)
	l.v.SetDefault("http.rate_burst", 10)

	l.v.SetDefault("metrics.enabled", true)
	l.v.SetDefault("metrics.namespace", "akabot")

	l.v.SetDefault("activity.enabled", true)
	l.v.SetDefault("activity.channel", "settings")

	l.v.SetDefault("rules.engine", "expr")
	l.v.SetDefault("rules.cache_size", 512)
}
