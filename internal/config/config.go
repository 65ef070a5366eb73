package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds the scheduling policy knobs read from the environment.
type Settings struct {
	// BufferEnabled turns on the minimum gap between a route's end and its
	// shift's start. Deployments must opt in; the rule is never on silently.
	BufferEnabled bool
	Buffer        time.Duration
}

// Load reads .env (if present) and the scheduling settings.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	minutes, err := strconv.Atoi(getEnv("SCHEDULE_BUFFER_MINUTES", "90"))
	if err != nil || minutes < 0 {
		minutes = 90
	}
	return Settings{
		BufferEnabled: getEnv("SCHEDULE_BUFFER_ENABLED", "false") == "true",
		Buffer:        time.Duration(minutes) * time.Minute,
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
