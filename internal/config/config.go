package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Log       LogConfig
	Receipt   ReceiptConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

// ReceiptConfig configures the best-effort receipt publisher. An empty
// RabbitURL disables delivery entirely.
type ReceiptConfig struct {
	RabbitURL string
	Exchange  string
	Timeout   time.Duration
}

// AnalyticsConfig configures the optional dashboard response cache. An
// empty RedisAddr disables caching.
type AnalyticsConfig struct {
	RedisAddr string
	CacheTTL  time.Duration
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	// CONFIG_FILE points at an optional yaml file with the same keys.
	if cfgFile := viper.GetString("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "comanda")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "comanda")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("RECEIPT_EXCHANGE", "receipts")
	viper.SetDefault("RECEIPT_TIMEOUT", "3s")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("DASHBOARD_CACHE_TTL", "60s")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}

	receiptTimeout, err := time.ParseDuration(viper.GetString("RECEIPT_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(viper.GetString("DASHBOARD_CACHE_TTL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Receipt: ReceiptConfig{
			RabbitURL: viper.GetString("RABBITMQ_URL"),
			Exchange:  viper.GetString("RECEIPT_EXCHANGE"),
			Timeout:   receiptTimeout,
		},
		Analytics: AnalyticsConfig{
			RedisAddr: viper.GetString("REDIS_ADDR"),
			CacheTTL:  cacheTTL,
		},
	}

	return cfg, nil
}
