package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	BaseURL      string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	HistoryPath  string
	RedisAddr    string
	WebhookURL   string
	Env          string
}

func Load() *Config {
	return &Config{
		BaseURL:      getEnv("IMGCSV_BASE_URL", "http://localhost:5000"),
		PollInterval: getEnvAsDuration("IMGCSV_POLL_INTERVAL", 5*time.Second),
		HTTPTimeout:  getEnvAsDuration("IMGCSV_HTTP_TIMEOUT", 60*time.Second),
		HistoryPath:  getEnv("IMGCSV_HISTORY_PATH", defaultHistoryPath()),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		WebhookURL:   getEnv("IMGCSV_WEBHOOK_URL", ""),
		Env:          getEnv("ENV", "development"),
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "imgcsv-history.json"
	}
	return filepath.Join(home, ".imgcsv", "history.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("5s") and bare integers,
// which are read as milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
