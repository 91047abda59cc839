package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
	Lookup    LookupConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server and session related options.
type ServerConfig struct {
	Port          string
	SessionCookie string
	SessionTTL    time.Duration
}

// SheetsConfig contains configuration required to mirror committed entries to Google Sheets.
// Leaving both fields empty disables the mirror.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// Enabled reports whether the sheet mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for the committed entry archive. An empty URI disables it.
type MongoDBConfig struct {
	URI        string
	DBName     string
	Collection string
}

// Enabled reports whether the MongoDB archive is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// LookupConfig holds settings for the barcode to drug name lookup service.
type LookupConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Enabled reports whether drug name lookup is available.
func (c LookupConfig) Enabled() bool {
	return c.BaseURL != ""
}

// SchedulerConfig holds cron settings for background maintenance.
type SchedulerConfig struct {
	SweepSchedule string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	ttl, err := getenvDuration("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	lookupTimeout, err := getenvDuration("DRUG_LOOKUP_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          getenvWithDefault("APP_PORT", "8080"),
			SessionCookie: getenvWithDefault("SESSION_COOKIE", "entry_session"),
			SessionTTL:    ttl,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_RANGE", "Entries!A:H"),
		},
		MongoDB: MongoDBConfig{
			URI:        os.Getenv("MONGODB_URI"),
			DBName:     getenvWithDefault("MONGODB_DB_NAME", "packweigh"),
			Collection: getenvWithDefault("MONGODB_COLLECTION", "entries"),
		},
		Lookup: LookupConfig{
			BaseURL: os.Getenv("DRUG_LOOKUP_BASE_URL"),
			APIKey:  os.Getenv("DRUG_LOOKUP_API_KEY"),
			Timeout: lookupTimeout,
		},
		Scheduler: SchedulerConfig{
			SweepSchedule: getenvWithDefault("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.SessionCookie == "" {
		return errors.New("SESSION_COOKIE must not be empty")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	switch {
	case c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "":
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided with GOOGLE_SHEETS_CREDENTIALS_PATH")
	case c.Sheets.CredentialsPath == "" && c.Sheets.SpreadsheetID != "":
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided with GOOGLE_SHEET_DATABASE_ID")
	}
	if c.Sheets.Enabled() && c.Sheets.Range == "" {
		return errors.New("GOOGLE_SHEET_RANGE must not be empty")
	}

	if c.MongoDB.Enabled() && (c.MongoDB.DBName == "" || c.MongoDB.Collection == "") {
		return errors.New("MONGODB_DB_NAME and MONGODB_COLLECTION must not be empty")
	}

	if c.Lookup.Enabled() && c.Lookup.Timeout <= 0 {
		return errors.New("DRUG_LOOKUP_TIMEOUT must be positive")
	}

	if c.Scheduler.SweepSchedule == "" {
		return errors.New("SESSION_SWEEP_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Scheduler.SweepSchedule); err != nil {
		return fmt.Errorf("SESSION_SWEEP_SCHEDULE is invalid: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a duration: %w", key, err)
	}
	return d, nil
}
