// Package config loads and validates service configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Postgres Postgres `validate:"required"`
	Kafka    Kafka    `validate:"required"`

	Verification Verification `validate:"required"`
	Tracing      Tracing
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required"`
	// APIKeys maps API key -> terminal ID, parsed from
	// API_KEYS="key1:till-1,key2:till-2".
	APIKeys map[string]string
}

// Addr returns host:port for the listener.
func (h Http) Addr() string { return h.Host + ":" + h.Port }

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`
	SSLMode  string `validate:"required,oneof=disable require verify-ca verify-full"`
	MaxConns int    `validate:"gte=1"`
}

// DSN returns the pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode, p.MaxConns)
}

type Kafka struct {
	Brokers []string `validate:"required,min=1,dive,hostname_port"`
	GroupID string   `validate:"required"`
}

type Verification struct {
	BaseURL        string        `validate:"required,url"`
	APIKey         string        `validate:"omitempty"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

type Tracing struct {
	OTLPEndpoint string
	SampleRate   float64 `validate:"gte=0,lte=1"`
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host:    env("HOST", "0.0.0.0"),
			Port:    env("PORT", "8080"),
			APIKeys: envKeyMap("API_KEYS", "dev-key:till-1"),
		},

		Postgres: Postgres{
			Host:     env("POSTGRES_HOST", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
			DBName:   env("POSTGRES_DB", "compliance"),
			User:     env("POSTGRES_USER", "compliance"),
			Password: env("POSTGRES_PASSWORD", "compliance"),
			SSLMode:  env("POSTGRES_SSL_MODE", "disable"),
			MaxConns: envInt("POSTGRES_MAX_CONNS", 10),
		},

		Kafka: Kafka{
			Brokers: strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: env("KAFKA_GROUP_ID", "register-relay"),
		},

		Verification: Verification{
			BaseURL:        env("VERIFICATION_BASE_URL", "http://localhost:8090"),
			APIKey:         env("VERIFICATION_API_KEY", ""),
			RequestTimeout: envDuration("VERIFICATION_TIMEOUT", 5*time.Second),
		},

		Tracing: Tracing{
			OTLPEndpoint: env("OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   envFloat("TRACE_SAMPLE_RATE", 1.0),
		},
	}
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func envKeyMap(key, fallback string) map[string]string {
	raw := env(key, fallback)
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || k == "" {
			continue
		}
		keys[k] = v
	}
	return keys
}
