package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Network  NetworkConfig  `toml:"network"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Data     DataConfig     `toml:"data"`
	Movement MovementConfig `toml:"movement"`
	Accounts AccountsConfig `toml:"accounts"`
	Persist  PersistConfig  `toml:"persist"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`
	TickRate          time.Duration `toml:"tick_rate"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	PacketsPerSecond  int           `toml:"packets_per_second"` // 0 = unlimited
	WriteTimeout      time.Duration `toml:"write_timeout"`
	MaxSessions       int           `toml:"max_sessions"` // 0 = unlimited
	InputPoll         time.Duration `toml:"input_poll"`   // input-only passes between ticks, 0 = off
}

// DatabaseConfig configures PostgreSQL. An empty DSN runs the server without persistence.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DataConfig struct {
	MapList string `toml:"map_list"`
	TileDir string `toml:"tile_dir"`
	Roster  string `toml:"roster"`
	Scripts string `toml:"scripts"`
}

type MovementConfig struct {
	DefaultAllowance int `toml:"default_allowance"`
	MaxAllowance     int `toml:"max_allowance"` // upper clamp for script-adjusted allowances
}

type AccountsConfig struct {
	AutoCreate bool `toml:"auto_create"`
}

type PersistConfig struct {
	FlushIntervalTicks int `toml:"flush_interval_ticks"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := defaults()
	cfg.Server.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.Movement.DefaultAllowance < 0 {
		return fmt.Errorf("movement.default_allowance must be >= 0, got %d", c.Movement.DefaultAllowance)
	}
	if c.Movement.MaxAllowance < c.Movement.DefaultAllowance {
		return fmt.Errorf("movement.max_allowance (%d) below default_allowance (%d)",
			c.Movement.MaxAllowance, c.Movement.DefaultAllowance)
	}
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive")
	}
	if c.Persist.FlushIntervalTicks <= 0 {
		return fmt.Errorf("persist.flush_interval_ticks must be positive")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "SLGMove",
			ID:   1,
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:7101",
			TickRate:          100 * time.Millisecond,
			InQueueSize:       64,
			OutQueueSize:      128,
			MaxPacketsPerTick: 16,
			PacketsPerSecond:  60,
			WriteTimeout:      10 * time.Second,
			MaxSessions:       256,
			InputPoll:         10 * time.Millisecond,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			MapList: "data/yaml/map_list.yaml",
			TileDir: "map",
			Roster:  "data/yaml/roster.yaml",
			Scripts: "scripts",
		},
		Movement: MovementConfig{
			DefaultAllowance: 4,
			MaxAllowance:     99,
		},
		Accounts: AccountsConfig{
			AutoCreate: true,
		},
		Persist: PersistConfig{
			FlushIntervalTicks: 50, // 50 ticks x 100ms = 5 seconds
		},
	}
}
