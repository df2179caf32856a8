// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable. Strings for identifiers and
// secrets, ints for durations and costs.
type Config struct {
	Env              string // application environment (dev/test/prod)
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	JWTSecret        string // secret used to sign JWTs
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	CredentialScheme string // "plain" (demo default) or "bcrypt"
	BcryptCost       int    // bcrypt cost when CredentialScheme is bcrypt
	AMQPURL          string // RabbitMQ URL; empty disables event publishing
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first without overriding real
// environment variables. Missing required values abort startup.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:              optional("APP_ENV", "dev"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
		CredentialScheme: optional("CREDENTIAL_SCHEME", "plain"),
		BcryptCost:       optionalInt("BCRYPT_COST", 10),
		AMQPURL:          os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves a required environment variable or exits fatally.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must but converts to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func optional(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func optionalInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
