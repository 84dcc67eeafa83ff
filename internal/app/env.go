package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// requireEnv collects key's value, or records key as missing.
func requireEnv(key string, missing *[]string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		*missing = append(*missing, key)
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		log.Warn().
			Str("key", key).
			Str("value", raw).
			Dur("default", defaultValue).
			Msg("Invalid duration, using default")
		return defaultValue
	}
	return d
}

func getIntEnv(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Warn().
			Str("key", key).
			Str("value", raw).
			Int("default", defaultValue).
			Msg("Invalid integer, using default")
		return defaultValue
	}
	return n
}

func getBoolEnv(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Warn().
			Str("key", key).
			Str("value", raw).
			Bool("default", defaultValue).
			Msg("Invalid boolean, using default")
		return defaultValue
	}
	return b
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getListEnv(key string, defaultValue []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return splitList(raw)
}
