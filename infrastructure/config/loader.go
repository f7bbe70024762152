package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load. They take precedence over the file.
const (
	EnvConfigFile = "NOTEGRAPH_CONFIG"
	EnvAPIURL     = "NOTEGRAPH_API_URL"
	EnvMode       = "NOTEGRAPH_MODE"
)

// Load builds the configuration from, lowest priority first:
//  1. defaults
//  2. the YAML file at path, or $NOTEGRAPH_CONFIG when path is empty
//  3. environment variables
//
// A path given explicitly must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	loadEnvironmentVariables(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the YAML file on cfg. Unknown keys are rejected; an
// empty file changes nothing.
func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func loadEnvironmentVariables(cfg *Config) {
	cfg.APIURL = getEnv(EnvAPIURL, cfg.APIURL)
	cfg.Mode = getEnv(EnvMode, cfg.Mode)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.TickInterval = getEnvDuration("TICK_INTERVAL", cfg.TickInterval)
	cfg.ReloadInterval = getEnvDuration("RELOAD_INTERVAL", cfg.ReloadInterval)

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.TraceSampleRate = getEnvFloat("TRACE_SAMPLE_RATE", cfg.TraceSampleRate)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)

	// Tunables
	t := &cfg.Tunables
	t.ProximityThreshold = envFloat("PROXIMITY_THRESHOLD", t.ProximityThreshold)
	t.NudgeOffset = envFloat("NUDGE_OFFSET", t.NudgeOffset)
	t.ClusterStrength = envFloat("CLUSTER_STRENGTH", t.ClusterStrength)
	if os.Getenv("SKIP_KNOWN_CONNECTIONS") != "" {
		skip := getEnvBool("SKIP_KNOWN_CONNECTIONS", false)
		t.SkipKnownConnections = &skip
	}
}
