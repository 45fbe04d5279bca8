package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL string
	// Support switches the client to the back-office base path.
	Support bool

	// CredentialsPath is the sqlite file holding the token pair.
	// CredentialsDSN, when set, selects a shared postgres store instead.
	CredentialsPath string
	CredentialsDSN  string

	Timeout  time.Duration
	LogLevel string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	return Config{
		ServerURL:       os.Getenv("HRM_SERVER_URL"),
		Support:         os.Getenv("HRM_SUPPORT") == "true",
		CredentialsPath: EnvDefault("HRM_CREDENTIALS_PATH", defaultCredentialsPath()),
		CredentialsDSN:  os.Getenv("HRM_CREDENTIALS_DSN"),
		Timeout:         time.Duration(EnvIntDefault("HRM_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:        EnvDefault("LOG_LEVEL", "info"),
	}
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hrm-credentials.db"
	}
	return filepath.Join(home, ".hrmkit", "credentials.db")
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
