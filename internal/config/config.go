package config

import (
	"strings"
	"time"

	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/spf13/viper"
)

type Config struct {
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	Server ServerConfig
	Cache  CacheConfig
	Redis  RedisConfig
	Posts  PostsConfig
	Log    LogConfig
	Admin  AdminConfig
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// Path is the sqlite database file; ":memory:" keeps it in process.
	Path string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port         string
	BodyLimitMB  int
	SecureCookie bool
}

type CacheConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type PostsConfig struct {
	PerPage       int
	MaxImageBytes int64
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type AdminConfig struct {
	Username string
	Password string
}

var defaults = map[string]interface{}{
	"DB_DRIVER":   "postgres",
	"DB_HOST":     "localhost",
	"DB_PORT":     "5432",
	"DB_USER":     "yatube",
	"DB_PASSWORD": "yatube_secret",
	"DB_NAME":     "yatube",
	"DB_SSLMODE":  "disable",
	"DB_PATH":     "yatube.db",

	"MINIO_ENABLED":    false,
	"MINIO_ENDPOINT":   "localhost:9000",
	"MINIO_ACCESS_KEY": "yatube",
	"MINIO_SECRET_KEY": "yatube_secret",
	"MINIO_BUCKET":     "yatube-media",
	"MINIO_USE_SSL":    false,

	"JWT_SECRET":           "change-me-in-production",
	"JWT_EXPIRATION_HOURS": 24,

	"SERVER_PORT":          "8080",
	"SERVER_BODY_LIMIT_MB": 10,
	"SERVER_SECURE_COOKIE": false,

	"CACHE_BACKEND": "memory",
	"CACHE_TTL":     "300s",

	"REDIS_ADDR":       "localhost:6379",
	"REDIS_PASSWORD":   "",
	"REDIS_DB":         0,
	"REDIS_KEY_PREFIX": "yatube:page:",

	"POSTS_PER_PAGE":        10,
	"POSTS_MAX_IMAGE_BYTES": 5 * 1024 * 1024,

	"LOG_FILE":         "",
	"LOG_MAX_SIZE_MB":  50,
	"LOG_MAX_BACKUPS":  5,
	"LOG_MAX_AGE_DAYS": 28,

	"ADMIN_USERNAME": "admin",
	"ADMIN_PASSWORD": "admin123",
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that file. Environment variables win over the file.
func Load() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		logger.Warn("config_file_unreadable", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return cfg
}

// LoadFrom populates v with defaults and environment bindings and builds a
// Config from it. A config file read error is returned alongside a Config
// built from defaults and environment only.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var readErr error
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		readErr = v.ReadInConfig()
	}

	return build(v), readErr
}

func build(v *viper.Viper) *Config {
	return &Config{
		DB: DBConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		MinIO: MinIOConfig{
			Enabled:   v.GetBool("MINIO_ENABLED"),
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			ExpirationHours: v.GetInt("JWT_EXPIRATION_HOURS"),
		},
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			BodyLimitMB:  v.GetInt("SERVER_BODY_LIMIT_MB"),
			SecureCookie: v.GetBool("SERVER_SECURE_COOKIE"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(v.GetString("CACHE_BACKEND")),
			TTL:     durationOr(v, "CACHE_TTL", 300*time.Second),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		Posts: PostsConfig{
			PerPage:       positiveOr(v.GetInt("POSTS_PER_PAGE"), 10),
			MaxImageBytes: v.GetInt64("POSTS_MAX_IMAGE_BYTES"),
		},
		Log: LogConfig{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d := v.GetDuration(key)
	if d <= 0 {
		return fallback
	}
	return d
}

func positiveOr(value, fallback int) int {
	if value < 1 {
		return fallback
	}
	return value
}
