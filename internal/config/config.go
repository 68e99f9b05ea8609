// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the binaries need to run. The remote store URL is the
// only hard requirement; everything else has a workable default.
type Config struct {
	// APIBaseURL is the base URL of the remote sales store, e.g.
	// "https://api.example.com".
	APIBaseURL string
	// RequestTimeout bounds every remote call.
	RequestTimeout time.Duration
	// Username and Password are the sign-in credentials. Optional: the REPL
	// prompts interactively when they are unset.
	Username string
	Password string
	// ListenAddr is where the web server binds, e.g. ":8080".
	ListenAddr string
	// AllowedOrigins is the CORS allow-list for the web server; empty
	// disables cross-origin access.
	AllowedOrigins string
	// Debug switches the logger to development output.
	Debug bool
}

// Load reads configuration from the environment, loading .env first if one
// is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("API_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("API_TIMEOUT_SECONDS must be a positive integer, got %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		APIBaseURL:     baseURL,
		RequestTimeout: timeout,
		Username:       os.Getenv("API_USERNAME"),
		Password:       os.Getenv("API_PASSWORD"),
		ListenAddr:     ":" + port,
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		Debug:          os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true",
	}, nil
}
