// Package config loads ruleguard's process configuration from the
// environment. The teacher hardcodes every address in main.go; this
// factors those same values out with defaults matching the teacher's.
package config

import (
	"os"
	"strings"
	"time"
)

// Config holds every address and tunable ruleguard's process wiring
// needs.
type Config struct {
	Addr            string
	EtcdEndpoints   []string
	EtcdDialTimeout time.Duration
	RulePrefix      string
	CacheTTL        time.Duration
	OpenFGAHost     string
	OpenFGAStoreID  string
	PostgresURL     string
}

// Load reads every RULEGUARD_* environment variable, falling back to the
// teacher's original defaults where one is unset.
func Load() Config {
	return Config{
		Addr:            getEnv("RULEGUARD_ADDR", ":3030"),
		EtcdEndpoints:   splitCSV(getEnv("RULEGUARD_ETCD_ENDPOINTS", "localhost:2379")),
		EtcdDialTimeout: getDuration("RULEGUARD_ETCD_DIAL_TIMEOUT", 5*time.Second),
		RulePrefix:      getEnv("RULEGUARD_RULE_PREFIX", "/ruleguard/rules/"),
		CacheTTL:        getDuration("RULEGUARD_CACHE_TTL", 365*24*time.Hour),
		OpenFGAHost:     getEnv("RULEGUARD_OPENFGA_HOST", "localhost:8080"),
		OpenFGAStoreID:  getEnv("RULEGUARD_OPENFGA_STORE", ""),
		PostgresURL:     getEnv("RULEGUARD_POSTGRES_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
