package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Backend names accepted by PERSISTENCE_PRIMARY and PERSISTENCE_MIRROR.
const (
	BackendPostgres = "postgres"
	BackendRealtime = "realtime"
	BackendNone     = "none"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Persistence PersistenceConfig
	Cache       CacheConfig
	Roster      RosterConfig
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

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PersistenceConfig selects the agenda backends and the write policy around them.
type PersistenceConfig struct {
	Primary           string
	Mirror            string
	Timeout           time.Duration
	Retries           int
	RetryDelay        time.Duration
	SyncInterval      time.Duration
	LocalBackupPath   string
	RealtimeNamespace string
}

// CacheConfig governs the calendar view cache and its janitor.
type CacheConfig struct {
	Enabled       bool
	TTL           time.Duration
	ClearInterval time.Duration
}

// RosterConfig points at the YAML roster used by the seed command.
type RosterConfig struct {
	File            string
	DefaultPassword string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("AGENDA_TIMEZONE")

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

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Persistence = PersistenceConfig{
		Primary:           strings.ToLower(v.GetString("PERSISTENCE_PRIMARY")),
		Mirror:            strings.ToLower(v.GetString("PERSISTENCE_MIRROR")),
		Timeout:           clampDuration(parseDuration(v.GetString("PERSISTENCE_TIMEOUT"), 5*time.Second), 3*time.Second, 10*time.Second),
		Retries:           v.GetInt("PERSISTENCE_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("PERSISTENCE_RETRY_DELAY"), time.Second),
		SyncInterval:      parseDuration(v.GetString("PERSISTENCE_SYNC_INTERVAL"), time.Minute),
		LocalBackupPath:   v.GetString("LOCAL_BACKUP_PATH"),
		RealtimeNamespace: v.GetString("REALTIME_NAMESPACE"),
	}
	if cfg.Persistence.Retries <= 0 {
		cfg.Persistence.Retries = 3
	}
	if cfg.Persistence.Primary == cfg.Persistence.Mirror {
		cfg.Persistence.Mirror = BackendNone
	}

	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("CACHE_ENABLED"),
		TTL:           parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
		ClearInterval: parseDuration(v.GetString("CACHE_CLEAR_INTERVAL"), 30*time.Minute),
	}

	cfg.Roster = RosterConfig{
		File:            v.GetString("ROSTER_FILE"),
		DefaultPassword: v.GetString("SEED_DEFAULT_PASSWORD"),
	}

	if cfg.Env == EnvProduction && cfg.JWT.Secret == "dev_secret" {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// Location resolves the configured agenda timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("AGENDA_TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "agenda")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "agenda-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PERSISTENCE_PRIMARY", BackendPostgres)
	v.SetDefault("PERSISTENCE_MIRROR", BackendRealtime)
	v.SetDefault("PERSISTENCE_TIMEOUT", "5s")
	v.SetDefault("PERSISTENCE_RETRIES", 3)
	v.SetDefault("PERSISTENCE_RETRY_DELAY", "1s")
	v.SetDefault("PERSISTENCE_SYNC_INTERVAL", "1m")
	v.SetDefault("LOCAL_BACKUP_PATH", "./data/agenda-backup.db")
	v.SetDefault("REALTIME_NAMESPACE", "agenda")

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_CLEAR_INTERVAL", "30m")

	v.SetDefault("ROSTER_FILE", "./configs/roster.yaml")
	v.SetDefault("SEED_DEFAULT_PASSWORD", "trocar123")
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

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
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
