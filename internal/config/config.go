package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Automation AutomationConfig `mapstructure:"automation"`
	DayCycle   DayCycleConfig   `mapstructure:"day_cycle"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"`
	PongTimeout  int `mapstructure:"pong_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// SimulationConfig controls the simulation clock. IntervalMs below the
// 500 ms floor is rejected at startup the same way the runtime setter
// rejects it.
type SimulationConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	IntervalMs int  `mapstructure:"interval_ms"`
}

// AutomationConfig points at an optional JSON or YAML definitions file
// seeded into the engine at startup.
type AutomationConfig struct {
	DefinitionsPath string `mapstructure:"definitions_path"`
}

// DayCycleConfig drives automatic time-of-day transitions. Each entry is
// a cron expression (with seconds) fired in the server's local timezone.
type DayCycleConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Timezone  string `mapstructure:"timezone"`
	Morning   string `mapstructure:"morning"`
	Afternoon string `mapstructure:"afternoon"`
	Evening   string `mapstructure:"evening"`
	Night     string `mapstructure:"night"`
}

type DiscoveryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	InstanceName string `mapstructure:"instance_name"`
}

// Load reads configuration from ./configs/config.yaml with HESTIA_ env
// overrides for the common deployment knobs.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("simulation.interval_ms", "HESTIA_SIMULATION_INTERVAL_MS")
	viper.BindEnv("day_cycle.enabled", "HESTIA_DAY_CYCLE_ENABLED")
	viper.BindEnv("discovery.enabled", "HESTIA_DISCOVERY_ENABLED")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.path", "./data/hestia.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 10)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("websocket.ping_interval", 30)
	viper.SetDefault("websocket.pong_timeout", 60)
	viper.SetDefault("websocket.write_timeout", 10)

	viper.SetDefault("simulation.enabled", true)
	viper.SetDefault("simulation.interval_ms", 2000)

	viper.SetDefault("automation.definitions_path", "")

	viper.SetDefault("day_cycle.enabled", false)
	viper.SetDefault("day_cycle.timezone", "UTC")
	viper.SetDefault("day_cycle.morning", "0 0 7 * * *")
	viper.SetDefault("day_cycle.afternoon", "0 0 12 * * *")
	viper.SetDefault("day_cycle.evening", "0 0 18 * * *")
	viper.SetDefault("day_cycle.night", "0 0 23 * * *")

	viper.SetDefault("discovery.enabled", false)
	viper.SetDefault("discovery.instance_name", "hestia")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Simulation.IntervalMs < 500 {
		return fmt.Errorf("simulation interval must be at least 500ms, got %dms", c.Simulation.IntervalMs)
	}
	return nil
}
