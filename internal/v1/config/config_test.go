package config

import (
	"os"
	"strings"
	"testing"
)

// setupTestEnv sets up environment variables for testing
func setupTestEnv(t *testing.T) func() {
	origVars := map[string]string{
		"PORT":              os.Getenv("PORT"),
		"ROOM_BUS_ENABLED":  os.Getenv("ROOM_BUS_ENABLED"),
		"ROOM_BUS_ADDR":     os.Getenv("ROOM_BUS_ADDR"),
		"ROOM_BUS_PASSWORD": os.Getenv("ROOM_BUS_PASSWORD"),
		"GO_ENV":            os.Getenv("GO_ENV"),
		"LOG_LEVEL":         os.Getenv("LOG_LEVEL"),
		"ALLOWED_ORIGINS":   os.Getenv("ALLOWED_ORIGINS"),
	}

	for key := range origVars {
		os.Unsetenv(key)
	}

	return func() {
		for key, val := range origVars {
			if val != "" {
				os.Setenv(key, val)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

func TestValidateEnv_Defaults(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Expected Port to default to %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.BusEnabled {
		t.Errorf("Expected BusEnabled to default to false")
	}
	if cfg.GoEnv != "production" {
		t.Errorf("Expected GO_ENV to default to 'production', got '%s'", cfg.GoEnv)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LOG_LEVEL to default to 'info', got '%s'", cfg.LogLevel)
	}
}

func TestValidateEnv_ValidConfiguration(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("ROOM_BUS_ENABLED", "true")
	os.Setenv("ROOM_BUS_ADDR", "localhost:6379")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected PORT to be 8080, got %d", cfg.Port)
	}
	if !cfg.BusEnabled {
		t.Errorf("Expected BusEnabled to be true")
	}
	if cfg.BusAddr != "localhost:6379" {
		t.Errorf("Expected ROOM_BUS_ADDR to be 'localhost:6379', got '%s'", cfg.BusAddr)
	}
}

func TestValidateEnv_InvalidPort(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "99999")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("Expected error for invalid PORT, got nil")
	}
	if !strings.Contains(err.Error(), "PORT must be a valid port number") {
		t.Errorf("Expected error message about invalid PORT, got: %v", err)
	}
}

func TestValidateEnv_InvalidBusAddr(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("ROOM_BUS_ENABLED", "true")
	os.Setenv("ROOM_BUS_ADDR", "invalid-format")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("Expected error for invalid ROOM_BUS_ADDR, got nil")
	}
	if !strings.Contains(err.Error(), "ROOM_BUS_ADDR must be in format 'host:port'") {
		t.Errorf("Expected error message about ROOM_BUS_ADDR format, got: %v", err)
	}
}

func TestValidateEnv_BusDefaultAddr(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("ROOM_BUS_ENABLED", "true")
	// Don't set ROOM_BUS_ADDR

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.BusAddr != "localhost:6379" {
		t.Errorf("Expected ROOM_BUS_ADDR to default to 'localhost:6379', got '%s'", cfg.BusAddr)
	}
}

func TestAllowedOriginsList(t *testing.T) {
	cfg := &Config{}
	if got := cfg.AllowedOriginsList(); len(got) != 1 || got[0] != "http://localhost:3000" {
		t.Errorf("expected default origin list, got %v", got)
	}

	cfg.AllowedOrigins = "http://a.test,http://b.test"
	got := cfg.AllowedOriginsList()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("expected split origin list, got %v", got)
	}
}

func TestIsValidHostPort(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected bool
	}{
		{"Valid localhost", "localhost:8080", true},
		{"Valid IP", "127.0.0.1:3000", true},
		{"Valid hostname", "example.com:443", true},
		{"Missing port", "localhost", false},
		{"Missing host", ":8080", false},
		{"Invalid port", "localhost:99999", false},
		{"Non-numeric port", "localhost:abc", false},
		{"Multiple colons", "localhost:8080:9090", false},
		{"Empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isValidHostPort(tt.addr)
			if result != tt.expected {
				t.Errorf("isValidHostPort('%s') = %v, expected %v", tt.addr, result, tt.expected)
			}
		})
	}
}
