package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ImportConcurrency int
	RateLimitMs       int
	MaxRetries        int
	DownloadTimeout   time.Duration

	// MaxStampsInSeries caps the quantity accepted when a series is created.
	MaxStampsInSeries int

	CSVOutputPath string
	ChromeBin     string
	QueriesPath   string
	ParsersPath   string
	LogLevel      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "stamps"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "stamps"),
		PostgresDB:       getEnv("POSTGRES_DB", "stamps"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 3),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		DownloadTimeout:   time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SEC", 60)) * time.Second,

		MaxStampsInSeries: getEnvInt("MAX_STAMPS_IN_SERIES", 50),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/import_audit.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		QueriesPath:   getEnv("QUERIES_PATH", ""),
		ParsersPath:   getEnv("PARSERS_PATH", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
