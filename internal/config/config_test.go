package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Liveness.SweepInterval != 30*time.Second {
		t.Errorf("Expected 30s sweep interval, got %v", cfg.Liveness.SweepInterval)
	}
	if cfg.Client.PingInterval != 2*time.Second {
		t.Errorf("Expected 2s ping interval, got %v", cfg.Client.PingInterval)
	}
	if cfg.Client.MaxReconnectAttempts != 5 {
		t.Errorf("Expected 5 reconnect attempts, got %d", cfg.Client.MaxReconnectAttempts)
	}
	if cfg.RateLimit.Burst != 200 {
		t.Errorf("Expected burst 200, got %d", cfg.RateLimit.Burst)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("CLIENT_MAX_RECONNECT_ATTEMPTS", "10")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Liveness.SweepInterval != 5*time.Second {
		t.Errorf("Expected 5s sweep interval, got %v", cfg.Liveness.SweepInterval)
	}
	if cfg.Client.MaxReconnectAttempts != 10 {
		t.Errorf("Expected 10 attempts, got %d", cfg.Client.MaxReconnectAttempts)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("HEARTBEAT_INTERVAL", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")

	cfg := Load()

	if cfg.Liveness.SweepInterval != 30*time.Second {
		t.Errorf("Invalid duration should fall back, got %v", cfg.Liveness.SweepInterval)
	}
	if cfg.RateLimit.Burst != 200 {
		t.Errorf("Invalid int should fall back, got %d", cfg.RateLimit.Burst)
	}
}
