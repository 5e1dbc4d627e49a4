package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8420 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8420)
	}
	if cfg.Auth.TokenTTLHours != 24*30 {
		t.Errorf("Auth.TokenTTLHours = %d, want %d", cfg.Auth.TokenTTLHours, 24*30)
	}
	if cfg.Telemetry.Prometheus {
		t.Error("Telemetry.Prometheus should default to off")
	}
}

func TestMizanHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIZAN_HOME", dir)

	if got := MizanHome(); got != dir {
		t.Errorf("MizanHome() = %q, want %q", got, dir)
	}
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("MIZAN_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != DefaultConfig().Server.Port {
		t.Errorf("Port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIZAN_HOME", dir)

	toml := "[server]\nhost = \"0.0.0.0\"\nport = 9000\n\n[telemetry]\nprometheus = true\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if !cfg.Telemetry.Prometheus {
		t.Error("Telemetry.Prometheus should be true from file")
	}
	// Unset sections keep their defaults.
	if cfg.Auth.TokenTTLHours != 24*30 {
		t.Errorf("Auth.TokenTTLHours = %d, want default", cfg.Auth.TokenTTLHours)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("MIZAN_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Server.Port = 9123
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Server.Port != 9123 {
		t.Errorf("Port = %d, want 9123", got.Server.Port)
	}
}
