package config

import (
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SERVER_ADDR", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "ACCESS_TOKEN_TTL",
		"REFRESH_TOKEN_TTL", "LOGIN_PATH", "LANDING_PATH",
		"RATE_LIMIT_ENABLED", "COOKIE_SECURE",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("JWT_SECRET", testSecret)
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.DBName != "gabinete" {
		t.Errorf("DBName = %q, want %q", cfg.DBName, "gabinete")
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, 15*time.Minute)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want %v", cfg.RefreshTokenTTL, 7*24*time.Hour)
	}
	if cfg.LoginPath != "/login" {
		t.Errorf("LoginPath = %q, want %q", cfg.LoginPath, "/login")
	}
	if cfg.LandingPath != "/app/dashboard" {
		t.Errorf("LandingPath = %q, want %q", cfg.LandingPath, "/app/dashboard")
	}
	if !cfg.RateLimit.Enabled {
		t.Error("rate limiting should default to enabled")
	}
	if !cfg.SecurityHeaders.Enabled {
		t.Error("security headers should default to enabled")
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is not set")
	}

	os.Setenv("JWT_SECRET", "too-short")
	defer os.Unsetenv("JWT_SECRET")
	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is too short")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	os.Setenv("JWT_SECRET", testSecret)
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("ACCESS_TOKEN_TTL", "5m")
	os.Setenv("LANDING_PATH", "/app/inicio")
	defer func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("ACCESS_TOKEN_TTL")
		os.Unsetenv("LANDING_PATH")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 9090)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, 5*time.Minute)
	}
	if cfg.LandingPath != "/app/inicio" {
		t.Errorf("LandingPath = %q, want %q", cfg.LandingPath, "/app/inicio")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	os.Setenv("JWT_SECRET", testSecret)
	os.Setenv("SERVER_PORT", "not-a-number")
	os.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")
	defer func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("ACCESS_TOKEN_TTL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 8080 {
		t.Errorf("invalid port should fall back to default, got %d", cfg.ServerPort)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.AccessTokenTTL)
	}
}
