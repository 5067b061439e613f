package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int
	GRPCPort int

	APIBaseURL    string
	RemoteTimeout time.Duration
	// StockBackend selects where stock levels come from: http, redis or mysql
	StockBackend string

	// SnapshotBackend selects the cart snapshot store: redis, mysql or memory
	SnapshotBackend string
	SnapshotKey     string
	RedisAddr       string
	RedisPassword   string
	MySQLDSN        string

	ShutdownTimeout time.Duration
}

func Load() Config {
	return Config{
		AppEnv:          getEnv("APP_ENV", "dev"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		GRPCPort:        getEnvInt("GRPC_PORT", 50051),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:3333"),
		RemoteTimeout:   getEnvDuration("REMOTE_TIMEOUT", 5*time.Second),
		StockBackend:    getEnv("STOCK_BACKEND", "http"),
		SnapshotBackend: getEnv("SNAPSHOT_BACKEND", "redis"),
		SnapshotKey:     getEnv("SNAPSHOT_KEY", "@RocketShoes:cart"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/rocketcart?parseTime=true"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
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

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
