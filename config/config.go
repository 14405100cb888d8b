package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	DBDriver       string
	DBDSN          string
	TaxRate        decimal.Decimal
	JWTSecret      []byte
	AMQPURL        string
	AMQPExchange   string
	RedisAddr      string
	SnowflakeNode  int64
	SettleTimeout  time.Duration
	OutboxInterval time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigin  string
	SeedDemo       bool
}

// Load membaca .env (jika ada) lalu environment variable
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBDSN:          getEnv("DB_DSN", "file:pos.db?_busy_timeout=5000"),
		TaxRate:        getDecimal("TAX_RATE", decimal.Zero),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "pos.events"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		SnowflakeNode:  int64(getInt("SNOWFLAKE_NODE", 1)),
		SettleTimeout:  getDuration("SETTLE_TIMEOUT", 10*time.Second),
		OutboxInterval: getDuration("OUTBOX_INTERVAL", 500*time.Millisecond),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),
		AllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "*"),
		SeedDemo:       getEnv("SEED_DEMO", "false") == "true",
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		utils.ErrorLogger.Println("Warning: JWT_SECRET not set, every authenticated request will be rejected")
	}
	cfg.JWTSecret = []byte(secret)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
