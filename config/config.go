/*
Package config loads server configuration from the environment.

A .env file in the working directory is read first (godotenv); real
environment variables win over it. Flags parsed in main win over both,
so local runs can still override everything from the command line.

VARIABLES:
  PORT          HTTP port                  (default 8080)
  DB_PATH       SQLite database path       (default tracker.db)
  JWT_SECRET    HMAC key for auth tokens   (default dev key, warn in log)
  CORS_ORIGINS  Comma-separated origins    (default localhost dev ports)
*/
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Fine for local
// development, unacceptable in production; Load logs a warning.
const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	CORSOrigins []string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := Config{
		Port:      envInt("PORT", 8080),
		DBPath:    envStr("DB_PATH", "tracker.db"),
		JWTSecret: envStr("JWT_SECRET", ""),
		CORSOrigins: strings.Split(
			envStr("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080"), ","),
	}

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET not set, using development default")
		cfg.JWTSecret = DefaultJWTSecret
	}

	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}
