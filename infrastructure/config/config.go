package config

import (
	"os"
	"strconv"
	"time"

	domainconfig "notegraph/domain/config"
	"notegraph/pkg/utils"
)

// Config holds all client configuration
type Config struct {
	// Remote graph service
	APIURL         string        `yaml:"api_url" validate:"required,url"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`

	// View
	Mode           string        `yaml:"mode" validate:"oneof=2d 3d"`
	TickInterval   time.Duration `yaml:"tick_interval" validate:"gt=0"`
	ReloadInterval time.Duration `yaml:"reload_interval" validate:"gte=0"`

	// Tunables override the preset of the selected mode
	Tunables Tunables `yaml:"tunables"`

	Environment string `yaml:"environment" validate:"oneof=development staging production test"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Observability
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
	TraceSampleRate float64 `yaml:"trace_sample_rate" validate:"gte=0,lte=1"`
	MetricsAddr     string  `yaml:"metrics_addr"`
}

// Tunables are optional overrides of the interaction and layout parameters.
// Nil fields keep the mode preset.
type Tunables struct {
	ProximityThreshold   *float64 `yaml:"proximity_threshold"`
	NudgeOffset          *float64 `yaml:"nudge_offset"`
	SkipKnownConnections *bool    `yaml:"skip_known_connections"`
	ClusterStrength      *float64 `yaml:"cluster_strength"`
	ChargeStrength       *float64 `yaml:"charge_strength"`
	LinkDistance         *float64 `yaml:"link_distance"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		APIURL:          "http://localhost:5000",
		RequestTimeout:  10 * time.Second,
		Mode:            domainconfig.ModeThreeD,
		TickInterval:    16 * time.Millisecond,
		ReloadInterval:  30 * time.Second,
		Environment:     "development",
		LogLevel:        "info",
		TraceSampleRate: 1,
	}
}

// LoadConfig loads configuration from environment variables only
func LoadConfig() (*Config, error) {
	return Load("")
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	_, err := c.DomainConfig()
	return err
}

// DomainConfig returns the mode preset with the tunables applied
func (c *Config) DomainConfig() (*domainconfig.DomainConfig, error) {
	cfg := c.Tunables.Apply(domainconfig.LoadDomainConfig(c.Mode))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Apply returns a copy of base with the set tunables applied
func (t Tunables) Apply(base *domainconfig.DomainConfig) *domainconfig.DomainConfig {
	cfg := base.Clone()
	if t.ProximityThreshold != nil {
		cfg.ProximityThreshold = *t.ProximityThreshold
	}
	if t.NudgeOffset != nil {
		cfg.NudgeOffset = *t.NudgeOffset
	}
	if t.SkipKnownConnections != nil {
		cfg.SkipKnownConnections = *t.SkipKnownConnections
	}
	if t.ClusterStrength != nil {
		cfg.ClusterStrength = *t.ClusterStrength
	}
	if t.ChargeStrength != nil {
		cfg.ChargeStrength = *t.ChargeStrength
	}
	if t.LinkDistance != nil {
		cfg.LinkDistance = *t.LinkDistance
	}
	return cfg
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts a Go duration ("5s") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// envFloat returns a pointer when the variable holds a valid float
func envFloat(key string, current *float64) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return current
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return current
	}
	return &f
}
