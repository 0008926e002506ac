package configs

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var Envs struct {
	ALLOWED_ORIGINS []string
	GIN_MODE        string
	PORT            string
}

// Package-level var initializers would read the environment before
// godotenv gets a chance to load .env, so Envs is filled here instead.
func init() {
	// Missing .env is fine in production, everything comes from the
	// real environment there.
	godotenv.Load()

	Envs.ALLOWED_ORIGINS = splitOrigins(os.Getenv("ALLOWED_ORIGINS"))
	Envs.GIN_MODE = os.Getenv("GIN_MODE")
	Envs.PORT = envOr("PORT", "5000")
}

func envOr(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return fallback
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
