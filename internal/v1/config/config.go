package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// DefaultPort is used when PORT is unset; the spec's single recognized
// configuration option.
const DefaultPort = 15230

// Config holds validated environment configuration.
type Config struct {
	// Port is the HTTP/WebSocket listen port.
	Port int

	// Optional cross-instance room bus (Redis pub/sub).
	BusEnabled  bool
	BusAddr     string
	BusPassword string

	GoEnv          string
	LogLevel       string
	AllowedOrigins string
}

// AllowedOriginsList splits AllowedOrigins into a slice, falling back to
// localhost:3000 when unset (matching the reference server's dev default).
func (c *Config) AllowedOriginsList() []string {
	if c.AllowedOrigins == "" {
		return []string{"http://localhost:3000"}
	}
	return strings.Split(c.AllowedOrigins, ",")
}

// ValidateEnv validates all recognized environment variables and returns
// a Config object. Returns an error if any present variable is invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.Port = DefaultPort
	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", raw))
		} else {
			cfg.Port = port
		}
	}

	// Conditional: ROOM_BUS_ADDR (read only if ROOM_BUS_ENABLED=true;
	// defaults to localhost:6379 when unset)
	cfg.BusEnabled = os.Getenv("ROOM_BUS_ENABLED") == "true"
	if cfg.BusEnabled {
		cfg.BusAddr = os.Getenv("ROOM_BUS_ADDR")
		if cfg.BusAddr == "" {
			cfg.BusAddr = "localhost:6379"
			slog.Warn("ROOM_BUS_ADDR not set, using default", "addr", cfg.BusAddr)
		} else if !isValidHostPort(cfg.BusAddr) {
			errs = append(errs, fmt.Sprintf("ROOM_BUS_ADDR must be in format 'host:port' (got '%s')", cfg.BusAddr))
		}
		cfg.BusPassword = os.Getenv("ROOM_BUS_PASSWORD")
	}

	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)
	return cfg, nil
}

// isValidHostPort checks if a string is in the format "host:port".
func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}

	if parts[0] == "" {
		return false
	}

	return true
}

// logValidatedConfig logs the validated configuration.
func logValidatedConfig(cfg *Config) {
	slog.Info("Environment configuration validated successfully")
	slog.Info("Configuration",
		"port", cfg.Port,
		"bus_enabled", cfg.BusEnabled,
		"bus_addr", cfg.BusAddr,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
