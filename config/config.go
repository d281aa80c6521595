package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Tracing   TracingConfig   `yaml:"tracing"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`  // seconds
	WriteTimeout int `yaml:"write_timeout"` // seconds
	IdleTimeout  int `yaml:"idle_timeout"`  // seconds
}

type DatabaseConfig struct {
	// Driver is "sqlite3" or "postgres".
	Driver string `yaml:"driver"`
	// Path is only used by sqlite3.
	Path string `yaml:"path"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`

	MaxOpenConns    int `yaml:"max_open_conns"`
	MaxIdleConns    int `yaml:"max_idle_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"` // seconds
}

type DashboardConfig struct {
	PageSize         int `yaml:"page_size"`
	RecentSales      int `yaml:"recent_sales"`
	SuggestDebounce  int `yaml:"suggest_debounce_ms"`
	SuggestMinLength int `yaml:"suggest_min_chars"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	}
	if d.InMemory() {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + d.Path + "?mode=rwc&_journal_mode=WAL&_foreign_keys=on"
}

// InMemory reports whether the sqlite3 database lives only in memory.
func (d DatabaseConfig) InMemory() bool {
	return d.Driver != "postgres" && d.Path == ":memory:"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3001,
			ReadTimeout:  15,
			WriteTimeout: 15,
			IdleTimeout:  60,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			Path:            "book_store.db",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "book_store",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 300,
		},
		Dashboard: DashboardConfig{
			PageSize:         10,
			RecentSales:      5,
			SuggestDebounce:  500,
			SuggestMinLength: 3,
		},
		Tracing: TracingConfig{
			ServiceName: "bookstore",
		},
		LogLevel: "info",
	}
}

// Load creates a new Config from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file in the working directory and environment variables,
// in that order of precedence (last wins).
func Load() *Config {
	cfg, err := LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cfg, _ = LoadFile("")
	}
	return cfg
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvInt("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvInt("IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvInt("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Dashboard.PageSize = getEnvInt("PAGE_SIZE", cfg.Dashboard.PageSize)
	cfg.Dashboard.RecentSales = getEnvInt("RECENT_SALES", cfg.Dashboard.RecentSales)
	cfg.Dashboard.SuggestDebounce = getEnvInt("SUGGEST_DEBOUNCE_MS", cfg.Dashboard.SuggestDebounce)
	cfg.Dashboard.SuggestMinLength = getEnvInt("SUGGEST_MIN_CHARS", cfg.Dashboard.SuggestMinLength)

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = getEnv("SERVICE_NAME", cfg.Tracing.ServiceName)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
