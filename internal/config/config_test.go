package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "test-field"

[network]
bind_address = "127.0.0.1:9000"
tick_rate = "250ms"

[movement]
default_allowance = 6

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "test-field" {
		t.Errorf("server.name = %q", cfg.Server.Name)
	}
	if cfg.Network.BindAddress != "127.0.0.1:9000" || cfg.Network.TickRate != 250*time.Millisecond {
		t.Errorf("network = %+v", cfg.Network)
	}
	if cfg.Movement.DefaultAllowance != 6 || cfg.Movement.MaxAllowance != 99 {
		t.Errorf("movement = %+v", cfg.Movement)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	// Untouched sections keep their defaults.
	if cfg.Data.MapList != "data/yaml/map_list.yaml" || !cfg.Accounts.AutoCreate {
		t.Errorf("defaults lost: data=%+v accounts=%+v", cfg.Data, cfg.Accounts)
	}
	if cfg.Database.DSN != "" {
		t.Errorf("default dsn should be empty, got %q", cfg.Database.DSN)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("start time not set")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}

	cases := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[server\nname=1", "parse config"},
		{"negative allowance", "[movement]\ndefault_allowance = -1", "default_allowance"},
		{"max below default", "[movement]\ndefault_allowance = 5\nmax_allowance = 3", "max_allowance"},
		{"zero flush interval", "[persist]\nflush_interval_ticks = 0", "flush_interval_ticks"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("err=%v, want mention of %q", err, c.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Movement.DefaultAllowance != 4 {
		t.Errorf("default allowance = %d, want 4", cfg.Movement.DefaultAllowance)
	}
}
