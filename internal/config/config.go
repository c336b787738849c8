package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

type RabbitMQConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	User              string        `yaml:"user"`
	Password          string        `yaml:"password"`
	Exchange          string        `yaml:"exchange"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
}

type RedisConfig struct {
	URL        string        `yaml:"url"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// APIConfig is where the sync client finds the REST server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default is the configuration used for every key the file leaves out.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "comandas",
			Database:        "comandas",
			SSLMode:         "disable",
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
			ConnectTimeout:  5 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			Host:              "localhost",
			Port:              5672,
			User:              "guest",
			Password:          "guest",
			Exchange:          "pos_events",
			ReconnectAttempts: 5,
			ReconnectDelay:    time.Second,
		},
		Redis:  RedisConfig{URL: "redis://localhost:6379/0", SessionTTL: 12 * time.Hour},
		Server: ServerConfig{Port: 3000, ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second},
		API:    APIConfig{BaseURL: "http://localhost:3000", Timeout: 10 * time.Second},
		Log:    LogConfig{Level: "INFO"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A .env file next to the binary is loaded first if present.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", cfg.RabbitMQ.Password)
	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.API.BaseURL = getEnv("API_BASE_URL", cfg.API.BaseURL)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)
}

func (c *Config) validate() error {
	if c.Database.MaxConns < 1 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.max_conns must be at least 1 and not below min_conns")
	}
	if c.RabbitMQ.ReconnectAttempts < 1 {
		return fmt.Errorf("rabbitmq.reconnect_attempts must be at least 1")
	}
	if c.RabbitMQ.ReconnectDelay <= 0 {
		return fmt.Errorf("rabbitmq.reconnect_delay must be positive")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
