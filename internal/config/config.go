package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT. Access and refresh tokens are signed with distinct secrets so a
	// leak of one class cannot forge the other.
	AccessSecret  string
	RefreshSecret string

	// Outbound email (password reset links)
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	// Front-end
	WebsiteURL     string
	AllowedOrigins []string

	// Observability
	SentryDSN string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "auctus"),
		DBPassword: getEnv("DB_PASSWORD", "auctus"),
		DBName:     getEnv("DB_NAME", "auctus"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AccessSecret:  getEnv("JWT_ACCESS_SECRET", "fallback-access-secret-for-dev-only"),
		RefreshSecret: getEnv("JWT_REFRESH_SECRET", "fallback-refresh-secret-for-dev-only"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", ""),

		WebsiteURL: getEnv("WEBSITE_URL", "http://localhost:3000"),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000")
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.AllowedOrigins = append(config.AllowedOrigins, origin)
		}
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}
