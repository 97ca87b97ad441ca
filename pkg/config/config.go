package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Planning PlanningConfig `toml:"planning"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port    string `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type DatabaseConfig struct {
	URL  string `toml:"url"`  // postgres DSN, wins over Path
	Path string `toml:"path"` // sqlite file
}

type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	MasterSecret  string `toml:"master_secret"`
	AdminUsername string `toml:"admin_username"`
	AdminPassword string `toml:"admin_password"`
}

type PlanningConfig struct {
	// WindowDays is how far ahead the capacity report looks when no end date is given
	WindowDays int `toml:"window_days"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8000"},
		Database: DatabaseConfig{Path: "planner.db"},
		Auth: AuthConfig{
			AdminUsername: "admin",
			AdminPassword: "admin123",
		},
		Planning: PlanningConfig{WindowDays: 14},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() string {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return p
		}
	}
	return ""
}

// Load builds the configuration: defaults, then the optional TOML file at
// path, then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		content, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if len(content) > 0 {
			if err := toml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode toml: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Port, "PORT")
	set(&c.Server.GinMode, "GIN_MODE")
	set(&c.Database.URL, "DATABASE_URL")
	set(&c.Database.Path, "DATA_PATH")
	set(&c.Auth.JWTSecret, "JWT_SECRET")
	set(&c.Auth.MasterSecret, "API_MASTER_SECRET")
	set(&c.Auth.AdminUsername, "ADMIN_USERNAME")
	set(&c.Auth.AdminPassword, "ADMIN_PASSWORD")
	set(&c.Logging.Level, "LOG_LEVEL")

	if v := getenv("CAPACITY_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CAPACITY_WINDOW_DAYS %q: %w", v, err)
		}
		c.Planning.WindowDays = n
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server port is required")
	}
	if c.Database.URL == "" && strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database url or path is required")
	}
	if c.Planning.WindowDays <= 0 {
		return fmt.Errorf("planning.window_days must be > 0, got %d", c.Planning.WindowDays)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}
