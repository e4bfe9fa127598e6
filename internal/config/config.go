package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from an optional
// config file and environment variables.
type Config struct {
	ServerPort string
	AppName    string

	DBDriver          string
	DatabaseDSN       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	ResetDB           bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret   string
	SwaggerHost string

	LogLevel  string
	LogFormat string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

const defaultMySQLDSN = "user:password@tcp(localhost:3306)/mgtrako?charset=utf8mb4&parseTime=True&loc=Local"

// Load builds Config with sensible defaults. A config.yaml in . or ./configs
// is read when present; environment variables override it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// MYSQL_DSN is the older name of DATABASE_DSN.
	_ = v.BindEnv("DATABASE_DSN", "DATABASE_DSN", "MYSQL_DSN")

	return &Config{
		ServerPort:        v.GetString("SERVER_PORT"),
		AppName:           v.GetString("APP_NAME"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: durationOr(v, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ResetDB:           v.GetBool("RESET_DB"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisDB:           v.GetInt("REDIS_DB"),
		RedisPass:         v.GetString("REDIS_PASSWORD"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		SwaggerHost:       v.GetString("SWAGGER_HOST"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		MinIOEndpoint:     v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKey:    v.GetString("MINIO_ACCESS_KEY"),
		MinIOSecretKey:    v.GetString("MINIO_SECRET_KEY"),
		MinIOBucket:       v.GetString("MINIO_BUCKET"),
		MinIOUseSSL:       v.GetBool("MINIO_USE_SSL"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("APP_NAME", "MG Trako")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", defaultMySQLDSN)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("RESET_DB", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("SWAGGER_HOST", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "mgtrako-uploads")
	v.SetDefault("MINIO_USE_SSL", false)
}

// durationOr keeps the default when the configured value does not parse.
func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
