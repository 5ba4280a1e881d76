// Package config loads settingsctl configuration from defaults, an optional
// YAML file, environment variables and bound CLI flags.
package config

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Activity ActivityConfig `mapstructure:"activity"`
	Rules    RulesConfig    `mapstructure:"rules"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects the settings store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	// GCInterval schedules badger value-log collection while serving.
	GCInterval string `mapstructure:"gc_interval"`
}

// HTTPConfig configures the admin API.
type HTTPConfig struct {
	Addr            string   `mapstructure:"addr"`
	AdminToken      string   `mapstructure:"admin_token"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	// RateLimit caps mutating requests per second; zero disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// MetricsConfig toggles the prometheus activity sink and /metrics.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ActivityConfig configures activity emission.
type ActivityConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// RulesConfig selects the rule evaluator.
type RulesConfig struct {
	Engine    string `mapstructure:"engine"`
	CacheSize int64  `mapstructure:"cache_size"`
}
