package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds process-level settings for kuqu
type Config struct {
	// Kubernetes client settings
	KubeConfigPath string
	ClientQPS      float64
	ClientBurst    int

	// Discovery settings. Zero disables the timeout.
	DiscoveryTimeout time.Duration

	// Row materialization settings
	ChunkSize int

	// Logging settings
	LogLevel string
}

// New creates a new configuration with defaults
func New() *Config {
	return &Config{
		KubeConfigPath:   getEnv("KUBECONFIG_PATH", ""),
		ClientQPS:        getEnvFloat("CLIENT_QPS", 0),
		ClientBurst:      getEnvInt("CLIENT_BURST", 0),
		DiscoveryTimeout: getEnvDuration("DISCOVERY_TIMEOUT", 0),
		ChunkSize:        getEnvInt("CHUNK_SIZE", 4096),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
