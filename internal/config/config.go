package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

type (
	// Config holds configuration settings for the engine service
	Config struct {
		// API server
		APIHost  string
		APIPort  int
		LogLevel string

		// Definition store
		StoreBackend   string
		StoreCacheSize int
		Redis          RedisConfig
		SQLitePath     string

		// Definition files
		DefinitionsDir   string
		WatchDefinitions bool

		// Live run sessions
		SessionTTL    time.Duration
		SweepSchedule string

		// Revision archive
		ArchiveBucketURL string
		ArchivePrefix    string

		ShutdownTimeout time.Duration
	}

	// RedisConfig holds connection settings for the redis-backed
	// definition store
	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisDB     = 0
	DefaultRedisPrefix = "fieldline"
	MaxRedisDB         = 15

	DefaultSQLitePath = "fieldline.db"

	DefaultStoreCacheSize = 128
	MaxStoreCacheSize     = 1 << 16

	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepSchedule = "*/5 * * * *"
	MaxSessionTTL        = 24 * time.Hour

	DefaultShutdownTimeout = 10 * time.Second
	DefaultArchivePrefix   = "revisions/"
)

var (
	ErrInvalidAPIPort       = errors.New("invalid API port")
	ErrInvalidStoreBackend  = errors.New("invalid store backend")
	ErrMissingSQLitePath    = errors.New("sqlite path required")
	ErrInvalidSessionTTL    = errors.New("session TTL must be positive")
	ErrInvalidSweepSchedule = errors.New("invalid sweep schedule")
)

var validBackends = map[string]bool{
	BackendMemory: true,
	BackendRedis:  true,
	BackendSQLite: true,
}

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, stores, sessions, and archiving
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:  DefaultAPIHost,
		APIPort:  DefaultAPIPort,
		LogLevel: "info",

		StoreBackend:   BackendMemory,
		StoreCacheSize: DefaultStoreCacheSize,
		Redis: RedisConfig{
			Addr:   DefaultRedisAddr,
			DB:     DefaultRedisDB,
			Prefix: DefaultRedisPrefix,
		},
		SQLitePath: DefaultSQLitePath,

		SessionTTL:    DefaultSessionTTL,
		SweepSchedule: DefaultSweepSchedule,

		ArchivePrefix:   DefaultArchivePrefix,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("API_HOST"); host != "" {
		c.APIHost = host
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		c.StoreBackend = backend
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.Redis.Prefix = prefix
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		c.SQLitePath = path
	}
	if dir := os.Getenv("DEFINITIONS_DIR"); dir != "" {
		c.DefinitionsDir = dir
	}
	if schedule := os.Getenv("SWEEP_SCHEDULE"); schedule != "" {
		c.SweepSchedule = schedule
	}
	if bucketURL := os.Getenv("ARCHIVE_BUCKET_URL"); bucketURL != "" {
		c.ArchiveBucketURL = bucketURL
	}
	if prefix := os.Getenv("ARCHIVE_PREFIX"); prefix != "" {
		c.ArchivePrefix = prefix
	}

	if err := loadEnvBool("WATCH_DEFINITIONS", &c.WatchDefinitions); err != nil {
		return err
	}
	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"REDIS_DB", &c.Redis.DB, -1, MaxRedisDB,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"STORE_CACHE_SIZE", &c.StoreCacheSize, -1, MaxStoreCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"SESSION_TTL", &c.SessionTTL, MaxSessionTTL,
	); err != nil {
		return err
	}
	return loadEnvDuration(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout, time.Hour,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if !validBackends[c.StoreBackend] {
		return fmt.Errorf("%w: %s", ErrInvalidStoreBackend, c.StoreBackend)
	}
	if c.StoreBackend == BackendSQLite && c.SQLitePath == "" {
		return ErrMissingSQLitePath
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSweepSchedule, err)
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

func loadEnvDuration(key string, dst *time.Duration, max time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= 0 || v > max {
		return fmt.Errorf("invalid %s: %s out of range (0, %s]", key, v, max)
	}
	*dst = v
	return nil
}

func loadEnvBool(key string, dst *bool) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	*dst = v
	return nil
}
