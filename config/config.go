package config

import (
	"os"
	"strconv"
	"time"

	"vlanman/internal/service"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string

	Device service.DeviceConfig

	SessionTimeout       time.Duration
	ExpirySweepInterval  time.Duration
	SessionSweepInterval time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   os.Getenv("JWT_ISSUER"),
		Device: service.DeviceConfig{
			Host:           os.Getenv("DEVICE_HOST"),
			Port:           getenvInt("DEVICE_PORT", 22),
			Username:       os.Getenv("DEVICE_USERNAME"),
			Password:       os.Getenv("DEVICE_PASSWORD"),
			Timeout:        getenvDuration("DEVICE_TIMEOUT", 30*time.Second),
			SessionLogPath: os.Getenv("DEVICE_SESSION_LOG"),
		},
		SessionTimeout:       getenvDuration("SESSION_TIMEOUT", 30*time.Minute),
		ExpirySweepInterval:  getenvDuration("EXPIRY_SWEEP_INTERVAL", time.Hour),
		SessionSweepInterval: getenvDuration("SESSION_SWEEP_INTERVAL", 15*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
