package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverFile     = "file"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Storage  StorageConfig
	Ledger   LedgerConfig
	School   SchoolConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects where record collections are persisted.
type StorageConfig struct {
	Driver  string
	DataDir string
}

// LedgerConfig governs fee ledger caching.
type LedgerConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SchoolConfig seeds the settings document on first start.
type SchoolConfig struct {
	Name         string
	Address      string
	Phone        string
	Email        string
	Currency     string
	AcademicYear string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		Driver:  strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		DataDir: v.GetString("DATA_DIR"),
	}

	cfg.Ledger = LedgerConfig{
		CacheEnabled: v.GetBool("LEDGER_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("LEDGER_CACHE_TTL"), 5*time.Minute),
	}

	cfg.School = SchoolConfig{
		Name:         v.GetString("SCHOOL_NAME"),
		Address:      v.GetString("SCHOOL_ADDRESS"),
		Phone:        v.GetString("SCHOOL_PHONE"),
		Email:        v.GetString("SCHOOL_EMAIL"),
		Currency:     v.GetString("DEFAULT_CURRENCY"),
		AcademicYear: v.GetString("ACADEMIC_YEAR"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverFile, StorageDriverMemory:
	default:
		return errors.New("STORAGE_DRIVER must be one of postgres, file, memory")
	}
	if c.Storage.Driver == StorageDriverFile && strings.TrimSpace(c.Storage.DataDir) == "" {
		return errors.New("DATA_DIR is required for the file storage driver")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverFile)
	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("LEDGER_CACHE_ENABLED", false)
	v.SetDefault("LEDGER_CACHE_TTL", "5m")

	v.SetDefault("SCHOOL_NAME", "School")
	v.SetDefault("SCHOOL_ADDRESS", "")
	v.SetDefault("SCHOOL_PHONE", "")
	v.SetDefault("SCHOOL_EMAIL", "")
	v.SetDefault("DEFAULT_CURRENCY", "USD")
	v.SetDefault("ACADEMIC_YEAR", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
