package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvServiceName       = "LENDING_SERVICE_NAME"
	EnvLogLevel          = "LENDING_LOG_LEVEL"
	EnvActivityBackend   = "LENDING_ACTIVITY_BACKEND"
	EnvPostgresDSN       = "LENDING_POSTGRES_DSN"
	EnvPostgresDriver    = "LENDING_POSTGRES_DRIVER"
	EnvSQLitePath        = "LENDING_SQLITE_PATH"
	EnvReadersTable      = "LENDING_READERS_TABLE"
	EnvRedisAddr         = "LENDING_REDIS_ADDR"
	EnvRedisPassword     = "LENDING_REDIS_PASSWORD"
	EnvRedisDB           = "LENDING_REDIS_DB"
	EnvActivityCacheSize = "LENDING_ACTIVITY_CACHE_SIZE"
	EnvActivityCacheTTL  = "LENDING_ACTIVITY_CACHE_TTL"
	EnvMetricsBackend    = "LENDING_METRICS_BACKEND"
	EnvOTLPEndpoint      = "LENDING_OTLP_ENDPOINT"
	EnvNotificationsFile = "LENDING_NOTIFICATIONS_FILE"
)

// Backend names.
const (
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendRedis      = "redis"
	DriverPGX         = "pgx"
	DriverSQL         = "sql"
	DriverSQLX        = "sqlx"
	MetricsOTel       = "otel"
	MetricsPrometheus = "prometheus"
)

const (
	defaultServiceName       = "library-lending"
	defaultLogLevel          = "info"
	defaultSQLitePath        = "lending.db"
	defaultReadersTable      = "readers"
	defaultRedisAddr         = "localhost:6379"
	defaultActivityCacheSize = 1024
	defaultActivityCacheTTL  = 30 * time.Second
)

var (
	ErrUnsupportedActivityBackend = errors.New("unsupported activity backend")
	ErrUnsupportedPostgresDriver  = errors.New("unsupported postgres driver")
	ErrUnsupportedMetricsBackend  = errors.New("unsupported metrics backend")
	ErrMissingPostgresDSN         = errors.New("postgres dsn is required for the postgres activity backend")
	ErrInvalidLogLevel            = errors.New("invalid log level")
	ErrInvalidValue               = errors.New("invalid value")
)

// Config holds the complete runtime configuration.
type Config struct {
	ServiceName       string
	LogLevel          string
	ActivityBackend   string
	PostgresDSN       string
	PostgresDriver    string
	SQLitePath        string
	ReadersTable      string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ActivityCacheSize int
	ActivityCacheTTL  time.Duration
	MetricsBackend    string
	OTLPEndpoint      string
	NotificationsFile string
}

// Load builds a Config from the environment and the given .env files (".env" when none are given).
// Missing files are skipped. All validation problems are returned together.
func Load(envFiles ...string) (Config, error) {
	fileValues, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, err
	}

	l := loader{fileValues: fileValues}

	cfg := Config{
		ServiceName:       l.str(EnvServiceName, defaultServiceName),
		LogLevel:          strings.ToLower(l.str(EnvLogLevel, defaultLogLevel)),
		ActivityBackend:   strings.ToLower(l.str(EnvActivityBackend, BackendSQLite)),
		PostgresDSN:       l.str(EnvPostgresDSN, ""),
		PostgresDriver:    strings.ToLower(l.str(EnvPostgresDriver, DriverPGX)),
		SQLitePath:        l.str(EnvSQLitePath, defaultSQLitePath),
		ReadersTable:      l.str(EnvReadersTable, defaultReadersTable),
		RedisAddr:         l.str(EnvRedisAddr, defaultRedisAddr),
		RedisPassword:     l.str(EnvRedisPassword, ""),
		RedisDB:           l.integer(EnvRedisDB, 0),
		ActivityCacheSize: l.integer(EnvActivityCacheSize, defaultActivityCacheSize),
		ActivityCacheTTL:  l.duration(EnvActivityCacheTTL, defaultActivityCacheTTL),
		MetricsBackend:    strings.ToLower(l.str(EnvMetricsBackend, MetricsOTel)),
		OTLPEndpoint:      l.str(EnvOTLPEndpoint, ""),
		NotificationsFile: l.str(EnvNotificationsFile, ""),
	}

	if err := errors.Join(append(l.errs, cfg.Validate())...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	var errs []error

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.ActivityBackend {
	case BackendSQLite, BackendRedis:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, ErrMissingPostgresDSN)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedActivityBackend, c.ActivityBackend))
	}

	switch c.PostgresDriver {
	case DriverPGX, DriverSQL, DriverSQLX:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedPostgresDriver, c.PostgresDriver))
	}

	switch c.MetricsBackend {
	case MetricsOTel, MetricsPrometheus:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedMetricsBackend, c.MetricsBackend))
	}

	if c.ActivityCacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, EnvActivityCacheSize))
	}

	if c.ActivityCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, EnvActivityCacheTTL))
	}

	return errors.Join(errs...)
}

func readEnvFiles(envFiles []string) (map[string]string, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	values := make(map[string]string)

	for _, file := range envFiles {
		fileValues, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}

		// earlier files win, like godotenv.Load
		for key, value := range fileValues {
			if _, ok := values[key]; !ok {
				values[key] = value
			}
		}
	}

	return values, nil
}

type loader struct {
	fileValues map[string]string
	errs       []error
}

func (l *loader) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	if value, ok := l.fileValues[key]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	return fallback
}

func (l *loader) integer(key string, fallback int) int {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, key, raw))
		return fallback
	}

	return value
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidValue, key, raw))
		return fallback
	}

	return value
}
