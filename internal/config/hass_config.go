package config

import (
	"os"
	"strconv"
	"time"
)

// HassConfig holds Home Assistant backend configuration
type HassConfig struct {
	BaseURL     string
	Token       string
	EntryID     string
	Timeout     time.Duration
	SettleDelay time.Duration
}

// GetHassConfig returns Home Assistant configuration from environment variables
func GetHassConfig() *HassConfig {
	timeoutSec, _ := strconv.Atoi(getEnv("HASS_TIMEOUT_SEC", "30"))
	settleMs, _ := strconv.Atoi(getEnv("SETTLE_DELAY_MS", "2000"))

	return &HassConfig{
		BaseURL:     getEnv("HASS_BASE_URL", "http://homeassistant.local:8123"),
		Token:       getEnv("HASS_TOKEN", ""),
		EntryID:     getEnv("HASS_ENTRY_ID", ""),
		Timeout:     time.Duration(timeoutSec) * time.Second,
		SettleDelay: time.Duration(settleMs) * time.Millisecond,
	}
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
