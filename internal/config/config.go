package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var (
	// ErrRead возвращается, если файл конфигурации не удалось прочитать
	ErrRead = errors.New("config: failed to read config file")

	// ErrInvalid возвращается при недопустимых значениях конфигурации
	ErrInvalid = errors.New("config: invalid configuration")
)

// Переменные окружения, переопределяющие секреты из файла
const (
	EnvDBPassword = "DB_PASSWORD"
	EnvJWTSecret  = "JWT_SECRET"
	EnvCacheDSN   = "CACHE_DSN"
)

// Драйверы локального кэша
const (
	CacheDriverSQLite = "sqlite"
	CacheDriverMySQL  = "mysql"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Cache     CacheConfig     `toml:"cache"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Auth      AuthConfig      `toml:"auth"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Ledger    LedgerConfig    `toml:"ledger"`
}

// ServerConfig таймауты указываются в секундах
type ServerConfig struct {
	HTTPPort        int      `toml:"http_port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	IdleTimeout     int      `toml:"idle_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды

	// Параметры pq.Listener для живой ленты доступности мест
	ListenChannel        string `toml:"listen_channel"`
	ListenMinReconnectMs int    `toml:"listen_min_reconnect_ms"`
	ListenMaxReconnectMs int    `toml:"listen_max_reconnect_ms"`
}

// DSN строка подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// CacheConfig локальная реплика (gorm)
type CacheConfig struct {
	Enabled   bool   `toml:"enabled"`
	Driver    string `toml:"driver"` // sqlite | mysql
	DSN       string `toml:"dsn"`
	Workers   int    `toml:"workers"`
	QueueSize int    `toml:"queue_size"`
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// AuthConfig проверка JWT, выпущенных провайдером аутентификации
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

// SchedulerConfig фоновая задача перевода статусов бронирований
type SchedulerConfig struct {
	Enabled    bool   `toml:"enabled"`
	StatusCron string `toml:"status_cron"`
	BatchSize  int    `toml:"batch_size"`
	RunTimeout int    `toml:"run_timeout"` // секунды на один проход
}

type LedgerConfig struct {
	OperationTimeout int `toml:"operation_timeout"` // секунды
	ExpiryGraceMin   int `toml:"expiry_grace_minutes"`
}

// Load читает TOML-файл, подгружает .env (если есть) и применяет значения по умолчанию
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}

	// .env необязателен: в контейнере секреты приходят из окружения
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvCacheDSN); v != "" {
		c.Cache.DSN = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	// write_timeout = 0 оставляем как есть: WebSocket-соединения живут долго
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
	if c.Database.ListenChannel == "" {
		c.Database.ListenChannel = "spot_availability"
	}
	if c.Database.ListenMinReconnectMs == 0 {
		c.Database.ListenMinReconnectMs = 100
	}
	if c.Database.ListenMaxReconnectMs == 0 {
		c.Database.ListenMaxReconnectMs = 10000
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverSQLite
	}
	if c.Cache.DSN == "" && c.Cache.Driver == CacheDriverSQLite {
		c.Cache.DSN = "file:parking_cache.db?cache=shared"
	}
	if c.Cache.Workers == 0 {
		c.Cache.Workers = 4
	}
	if c.Cache.QueueSize == 0 {
		c.Cache.QueueSize = 256
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "parking_service"
	}

	if c.Scheduler.StatusCron == "" {
		c.Scheduler.StatusCron = "* * * * *"
	}
	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = 100
	}
	if c.Scheduler.RunTimeout == 0 {
		c.Scheduler.RunTimeout = 50
	}

	if c.Ledger.OperationTimeout == 0 {
		c.Ledger.OperationTimeout = 10
	}
	if c.Ledger.ExpiryGraceMin == 0 {
		c.Ledger.ExpiryGraceMin = 15
	}
}

// Validate проверяет обязательные поля и допустимые значения
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be in 1..65535")
	}
	if c.Database.DBName == "" {
		problems = append(problems, "database.dbname is required")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret (or JWT_SECRET) is required")
	}
	if c.Cache.Enabled {
		if c.Cache.Driver != CacheDriverSQLite && c.Cache.Driver != CacheDriverMySQL {
			problems = append(problems, fmt.Sprintf("cache.driver %q is not supported", c.Cache.Driver))
		}
		if c.Cache.DSN == "" {
			problems = append(problems, "cache.dsn (or CACHE_DSN) is required")
		}
	}
	if c.Cache.Workers < 0 {
		problems = append(problems, "cache.workers must be positive")
	}
	if c.Ledger.ExpiryGraceMin < 0 {
		problems = append(problems, "ledger.expiry_grace_minutes must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
