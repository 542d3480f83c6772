package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIURL string

	StoreDriver string
	StoreDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPTimeout time.Duration

	LogLevel string
}

func Load() Config {
	return Config{
		APIURL: strings.TrimRight(EnvDefault("VEND_API_URL", "http://localhost:8000"), "/"),

		StoreDriver: strings.ToLower(EnvDefault("VEND_STORE_DRIVER", "sqlite")),
		StoreDSN:    EnvDefault("VEND_STORE_DSN", "vend.db"),

		RedisAddr:     EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		HTTPTimeout: EnvDurationDefault("VEND_HTTP_TIMEOUT", 10*time.Second),

		LogLevel: EnvDefault("LOG_LEVEL", "warn"),
	}
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go durations ("5s") or a bare number of seconds.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
