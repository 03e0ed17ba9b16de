package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret      string
	JWTExpiryHours int

	RedisAddr     string
	RedisPassword string

	RateLimitEnabled bool
	RateLimitMax     int
	RateLimitWindow  time.Duration

	MaxProjectsPerUser int

	AllowedOrigins []string

	LogLevel    string
	Environment string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "taskboard_user"),
		DBPassword: getEnv("DB_PASSWORD", "taskboard_pass"),
		DBName:     getEnv("DB_NAME", "taskboard_db"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", false),
		RateLimitMax:     getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:  time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		MaxProjectsPerUser: getEnvInt("MAX_PROJECTS_PER_USER", 20),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
