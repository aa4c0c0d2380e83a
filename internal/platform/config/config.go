package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env            string
	HTTPAddr       string
	CorsOrigin     string
	JWTSecret      string
	JWTTTL         time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownTimout time.Duration
	MaxRequestBody int64

	PostgresURL  string
	MigrationDir string

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	DescriptionCacheTTL time.Duration

	NATSURL string

	WorldSeed  string
	ViewRadius int

	NarratorURL     string
	NarratorTimeout time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		CorsOrigin:     getEnv("CORS_ORIGIN", "*"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTTTL:         getDuration("JWT_TTL", 12*time.Hour),
		ReadTimeout:    getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 20*time.Second),
		MaxRequestBody: getInt64("MAX_REQUEST_BODY_BYTES", 1<<20),

		PostgresURL:  getEnv("POSTGRES_URL", ""),
		MigrationDir: getEnv("MIGRATION_DIR", "migrations"),

		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getInt("REDIS_DB", 0),
		DescriptionCacheTTL: getDuration("DESCRIPTION_CACHE_TTL", 6*time.Hour),

		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		WorldSeed:  getEnv("WORLD_SEED", "overworld"),
		ViewRadius: getInt("VIEW_RADIUS", 8),

		NarratorURL:     getEnv("NARRATOR_URL", "http://localhost:9090/generate"),
		NarratorTimeout: getDuration("NARRATOR_TIMEOUT", 30*time.Second),
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.WorldSeed == "" {
		return Config{}, fmt.Errorf("WORLD_SEED must not be empty")
	}
	if cfg.ViewRadius <= 0 {
		return Config{}, fmt.Errorf("VIEW_RADIUS must be > 0")
	}
	if cfg.NarratorURL == "" {
		return Config{}, fmt.Errorf("NARRATOR_URL must not be empty")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
