// Package config reads settings through Viper with an OS environment fallback.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return strings.TrimSpace(viperValue)
}

// GetStringDefault returns the value for key or fallback when unset.
func GetStringDefault(key, fallback string) string {
	if v := GetString(key); v != "" {
		return v
	}
	return fallback
}

// GetInt returns the integer value for key or fallback when unset or malformed.
func GetInt(key string, fallback int) int {
	v := GetString(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool returns the boolean value for key or fallback when unset or malformed.
func GetBool(key string, fallback bool) bool {
	v := GetString(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// GetDuration reads a duration. Bare integers are seconds, so
// CACHE_EXPIRATION=3600 and CACHE_EXPIRATION=1h mean the same thing.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := GetString(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
