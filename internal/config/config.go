package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cast"
)

type Config struct {
	Port            int
	DatabaseURL     string
	RedisAddr       string
	JWTSecret       string
	JWTExpiresHours int
	StatsCacheTTL   int // minutes
	MutationRPS     float64
	MutationBurst   int
}

func Load() *Config {
	return &Config{
		Port:            envInt("PORT", 8080),
		DatabaseURL:     env("DATABASE_URL", "postgres://tracknest:tracknest@db:5432/tracknest?sslmode=disable"),
		RedisAddr:       env("REDIS_ADDR", "redis:6379"),
		JWTSecret:       env("JWT_SECRET", "change-me-in-production"),
		JWTExpiresHours: envInt("JWT_EXPIRES_HOURS", 24*7),
		StatsCacheTTL:   envInt("STATS_CACHE_TTL_MINUTES", 10),
		MutationRPS:     envFloat("MUTATION_RPS", 5),
		MutationBurst:   envInt("MUTATION_BURST", 10),
	}
}

// MergeFromDB overlays admin-tuned settings on top of the env config. Missing
// table or keys are fine; env values stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM system_settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "stats_cache_ttl_minutes":
			if v, err := cast.ToIntE(value); err == nil {
				c.StatsCacheTTL = v
			}
		case "mutation_rps":
			if v, err := cast.ToFloat64E(value); err == nil {
				c.MutationRPS = v
			}
		case "mutation_burst":
			if v, err := cast.ToIntE(value); err == nil {
				c.MutationBurst = v
			}
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
