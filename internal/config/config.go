package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// DataDir is the root of the local partition storage.
	DataDir string

	// City collected by the weather job.
	City string

	// WeatherSource selects the producer: "wttr" or "simulated".
	WeatherSource string

	// CollectInterval controls how often the collection job fires.
	CollectInterval time.Duration

	// CollectTimeout bounds a single producer call; on expiry the run is
	// recorded as failed.
	CollectTimeout time.Duration

	// HTTPTimeout applies to the shared outbound HTTP client.
	HTTPTimeout time.Duration

	// MaxAgeHours is the freshness bound for health checks.
	MaxAgeHours float64

	// Expected on-disk volume band for the weather namespace, in MB.
	VolumeMinMB float64
	VolumeMaxMB float64

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.DataDir = getenvDefault("DATA_DIR", "./data")
	cfg.City = getenvDefault("WEATHER_CITY", "Campinas")
	cfg.WeatherSource = getenvDefault("WEATHER_SOURCE", "wttr")
	if cfg.WeatherSource != "wttr" && cfg.WeatherSource != "simulated" {
		return nil, fmt.Errorf("invalid WEATHER_SOURCE %q: must be wttr or simulated", cfg.WeatherSource)
	}

	// Collection interval: default 30 minutes.
	intervalStr := getenvDefault("COLLECT_INTERVAL", "30m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECT_INTERVAL: %w", err)
	}
	cfg.CollectInterval = interval

	timeoutStr := getenvDefault("COLLECT_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECT_TIMEOUT: %w", err)
	}
	cfg.CollectTimeout = timeout

	httpTimeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	httpTimeout, err := time.ParseDuration(httpTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	cfg.MaxAgeHours = getenvFloat("MAX_AGE_HOURS", 24)
	cfg.VolumeMinMB = getenvFloat("VOLUME_MIN_MB", 0)
	cfg.VolumeMaxMB = getenvFloat("VOLUME_MAX_MB", 500)

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
