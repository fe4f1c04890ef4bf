package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

type Config struct {
	HTTPPort string
	AppEnv   string
	// Backend selects where catalog stock and orders live.
	Backend string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	// RedisAddr is empty when no redis is available.
	RedisAddr string

	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaOrderTopic string
	KafkaGroupID    string

	JWTSecret string

	RateLimit float64
	RateBurst int

	CatalogSeedFile string
	LockShards      int
}

// Load reads the configuration from the environment, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AppEnv:          getEnv("APP_ENV", "development"),
		Backend:         getEnv("STORE_BACKEND", BackendMemory),
		DBHost:          getEnv("DB_HOST", "127.0.0.1"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "root"),
		DBPass:          getEnv("DB_PASS", ""),
		DBName:          getEnv("DB_NAME", "storefront"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaEnabled:    getEnvBool("KAFKA_ENABLED", false),
		KafkaBrokers:    getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "order-topic"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "storefront-cache-group"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		RateLimit:       getEnvFloat("RATE_LIMIT", 10),
		RateBurst:       getEnvInt("RATE_BURST", 30),
		CatalogSeedFile: getEnv("CATALOG_SEED_FILE", ""),
		LockShards:      getEnvInt("LOCK_SHARDS", 64),
	}

	switch cfg.Backend {
	case BackendMemory, BackendMySQL:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Backend)
	}
	if cfg.LockShards <= 0 {
		return nil, fmt.Errorf("LOCK_SHARDS must be positive, got %d", cfg.LockShards)
	}
	return cfg, nil
}

// DSN is the go-sql-driver/mysql data source name.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvSlice(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
