package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without a zoneinfo database
)

// Record store backends
const (
	BackendNotion    = "notion"
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Strava API configuration
	StravaAccessToken  string
	StravaClientID     string
	StravaClientSecret string
	StravaRefreshToken string

	// Record store configuration
	StoreBackend        string
	NotionToken         string
	NotionDatabaseID    string
	FirestoreProjectID  string
	FirestoreCollection string
	DatabasePath        string

	// Google Calendar configuration
	GoogleCredentialsFile string
	GoogleCalendarID      string

	// Week numbering
	CalendarYear int
	Timezone     string

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Observability
	PushgatewayURL    string
	SentryDSN         string
	SentryEnvironment string

	location *time.Location
}

// Load reads configuration from environment variables.
// Credentials are checked per command by RequireCollector and RequireCalendar.
func Load() (*Config, error) {
	cfg := &Config{
		StravaAccessToken:  os.Getenv("STRAVA_ACCESS_TOKEN"),
		StravaClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		StravaRefreshToken: os.Getenv("STRAVA_REFRESH_TOKEN"),

		StoreBackend:        getEnv("STORE_BACKEND", BackendNotion),
		NotionToken:         os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:    os.Getenv("NOTION_DATABASE_ID"),
		FirestoreProjectID:  os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreCollection: getEnv("FIRESTORE_COLLECTION", "workouts"),
		DatabasePath:        getEnv("DATABASE_PATH", "./workouts.db"),

		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),

		CalendarYear: getEnvInt("CALENDAR_YEAR", 2025),
		Timezone:     getEnv("TIMEZONE", "America/New_York"),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		PushgatewayURL:    os.Getenv("PUSHGATEWAY_URL"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
	}

	switch cfg.StoreBackend {
	case BackendNotion, BackendFirestore, BackendSQLite:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of: notion, firestore, sqlite")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be one of: console, json")
	}

	if cfg.CalendarYear < 1970 || cfg.CalendarYear > 9999 {
		return nil, fmt.Errorf("CALENDAR_YEAR must be a four digit year")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return cfg, nil
}

// Location returns the time zone used for week boundaries and local start times
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// RequireCollector fails fast if anything collect-workouts needs is missing
func (c *Config) RequireCollector() error {
	var missingVars []string

	if c.StravaAccessToken == "" {
		missingVars = append(missingVars, "STRAVA_ACCESS_TOKEN")
	}
	missingVars = append(missingVars, c.missingStoreVars()...)

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}
	return nil
}

// RequireCalendar fails fast if anything create-calendar-events needs is missing
func (c *Config) RequireCalendar() error {
	missingVars := c.missingStoreVars()

	if c.GoogleCredentialsFile == "" {
		missingVars = append(missingVars, "GOOGLE_CREDENTIALS_FILE")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}
	return nil
}

func (c *Config) missingStoreVars() []string {
	var missingVars []string

	switch c.StoreBackend {
	case BackendNotion:
		if c.NotionToken == "" {
			missingVars = append(missingVars, "NOTION_TOKEN")
		}
		if c.NotionDatabaseID == "" {
			missingVars = append(missingVars, "NOTION_DATABASE_ID")
		}
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			missingVars = append(missingVars, "FIRESTORE_PROJECT_ID")
		}
	}

	return missingVars
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
