package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	DBDSN       string `mapstructure:"DB_DSN"`
	Storage     string `mapstructure:"STORAGE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`

	MeetingBaseURL  string `mapstructure:"MEETING_BASE_URL"`
	AllowEarlyStart bool   `mapstructure:"ALLOW_EARLY_START"` // только для dev/test, логируется
	Timezone        string `mapstructure:"TIMEZONE"`

	SlotSweepInterval time.Duration `mapstructure:"SLOT_SWEEP_INTERVAL"`

	TelegramToken    string `mapstructure:"TELEGRAM_TOKEN"`
	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string `mapstructure:"RABBITMQ_EXCHANGE"`
	RedisURL         string `mapstructure:"REDIS_URL"`
	NotifyQueueSize  int    `mapstructure:"NOTIFY_QUEUE_SIZE"`
	NotifyMaxRetries int    `mapstructure:"NOTIFY_MAX_RETRIES"`

	// GeneratedSecret - в dev-режиме сгенерирован случайный JWT-секрет
	GeneratedSecret bool `mapstructure:"-"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "tutor-sessions")
	v.SetDefault("ACCESS_TOKEN_TTL", "720h")
	v.SetDefault("MEETING_BASE_URL", "https://meet.jit.si")
	v.SetDefault("ALLOW_EARLY_START", false)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("SLOT_SWEEP_INTERVAL", "60s")
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "tutor.notifications")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		c.JWTSecret = secret
		c.GeneratedSecret = true
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.SlotSweepInterval <= 0 {
		return fmt.Errorf("SLOT_SWEEP_INTERVAL must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

// Location разбирает TIMEZONE, в нём трактуются даты и время слотов
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
