package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=stock port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DBDriver    string // postgres | sqlite
	DatabaseDSN string
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string

	LogLevel       string
	LogDevelopment bool

	RedisAddr     string
	RedisPassword string
	DashboardTTL  time.Duration

	// Seuil en dessous duquel une ligne de stock est signalée
	StockAlertThreshold int
	// Fenêtre (en jours) pour les lots proches de l'expiration
	ExpirationWindowDays int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DBDriver:             getEnv("DB_DRIVER", "postgres"),
		DatabaseDSN:          getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTTTL:               getDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:          getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4200"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogDevelopment:       getBool("LOG_DEVELOPMENT", false),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		DashboardTTL:         getDuration("DASHBOARD_CACHE_TTL", time.Minute),
		StockAlertThreshold:  getInt("STOCK_ALERT_THRESHOLD", 10),
		ExpirationWindowDays: getInt("EXPIRATION_WINDOW_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value, set your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == "http://localhost:4200" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production.")
	}

	return cfg, nil
}

// Validate checks the values that would make the server unsafe to start.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if c.StockAlertThreshold <= 0 {
		return errors.New("STOCK_ALERT_THRESHOLD must be positive")
	}
	if c.ExpirationWindowDays <= 0 {
		return errors.New("EXPIRATION_WINDOW_DAYS must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("[WARN] invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("[WARN] invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("[WARN] invalid duration for %s: %s", key, v)
			return def
		}
		return d
	}
	return def
}
