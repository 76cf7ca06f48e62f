package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// StorageRoot is the directory holding one sub-directory of workbook
	// containers per owner partition (clinic).
	StorageRoot string

	// Scheduling working window applied to every resource unless the
	// per-resource configuration overrides it.
	SlotWindowStart  string
	SlotWindowEnd    string
	SlotIntervalMins int

	// Redis cache for the merged patient directory. Empty addr disables
	// caching entirely.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Empty disables CORS headers.
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageRoot: getEnv("STORAGE_ROOT", "./data"),

		SlotWindowStart:  getEnv("SLOT_WINDOW_START", "08:00"),
		SlotWindowEnd:    getEnv("SLOT_WINDOW_END", "17:45"),
		SlotIntervalMins: getEnvAsInt("SLOT_INTERVAL_MINS", 15),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnvAsSlice retrieves a comma-separated environment variable
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
