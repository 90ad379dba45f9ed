package logger

import (
	"io"
	"os"
	"strconv"
)

// Config holds logger configuration.
type Config struct {
	Level        string    // debug, info, warn, error
	Format       string    // json, text
	Output       io.Writer // explicit destination, wins over everything below
	ServiceName  string
	ReportCaller bool

	Environment string // local, dev, prod; file output is skipped for local

	File       string
	FileOnly   bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		Level:        "info",
		Format:       "json",
		Output:       os.Stdout,
		ServiceName:  "memeverse",
		ReportCaller: true,
		Environment:  "local",
	}
}

// LoadFromEnv reads LOG_*, SERVICE_NAME and APP_ENV.
func LoadFromEnv() *Config {
	return &Config{
		Level:        getEnv("LOG_LEVEL", "info"),
		Format:       getEnv("LOG_FORMAT", "json"),
		ServiceName:  getEnv("SERVICE_NAME", "memeverse"),
		ReportCaller: getEnvBool("LOG_REPORT_CALLER", true),
		Environment:  getEnv("APP_ENV", "local"),

		File:     getEnv("LOG_FILE", "/var/log/memeverse/app.log"),
		FileOnly: getEnvBool("LOG_FILE_ONLY", false),

		MaxSizeMB:  getEnvInt("LOG_MAX_SIZE", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
		MaxAgeDays: getEnvInt("LOG_MAX_AGE", 30),
		Compress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return i
}
