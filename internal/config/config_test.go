package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "SESSION_COOKIE", "SESSION_TTL",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "GOOGLE_SHEET_RANGE",
		"MONGODB_URI", "MONGODB_DB_NAME", "MONGODB_COLLECTION",
		"DRUG_LOOKUP_BASE_URL", "DRUG_LOOKUP_API_KEY", "DRUG_LOOKUP_TIMEOUT",
		"SESSION_SWEEP_SCHEDULE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.SessionCookie != "entry_session" {
		t.Errorf("cookie = %q", cfg.Server.SessionCookie)
	}
	if cfg.Server.SessionTTL != 12*time.Hour {
		t.Errorf("ttl = %v", cfg.Server.SessionTTL)
	}
	if cfg.Sheets.Enabled() || cfg.MongoDB.Enabled() || cfg.Lookup.Enabled() {
		t.Errorf("integrations should be disabled by default: %+v", cfg)
	}
	if cfg.Scheduler.SweepSchedule != "@every 10m" {
		t.Errorf("schedule = %q", cfg.Scheduler.SweepSchedule)
	}
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to "".
	for _, key := range []string{"APP_PORT", "MONGODB_URI", "SESSION_TTL"} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "APP_PORT=9090\nMONGODB_URI=mongodb://localhost:27017\nSESSION_TTL=30m\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("APP_PORT")
		_ = os.Unsetenv("MONGODB_URI")
		_ = os.Unsetenv("SESSION_TTL")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if !cfg.MongoDB.Enabled() || cfg.MongoDB.Collection != "entries" {
		t.Errorf("mongodb = %+v", cfg.MongoDB)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("ttl = %v", cfg.Server.SessionTTL)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "forever")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080", SessionCookie: "entry_session", SessionTTL: time.Hour},
		Sheets:    SheetsConfig{Range: "Entries!A:H"},
		MongoDB:   MongoDBConfig{DBName: "packweigh", Collection: "entries"},
		Lookup:    LookupConfig{Timeout: time.Second},
		Scheduler: SchedulerConfig{SweepSchedule: "@every 10m"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
		{"zero ttl", func(c *Config) { c.Server.SessionTTL = 0 }, "SESSION_TTL"},
		{"sheets without id", func(c *Config) { c.Sheets.CredentialsPath = "/creds.json" }, "GOOGLE_SHEET_DATABASE_ID"},
		{"sheets without creds", func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"sheets complete", func(c *Config) { c.Sheets.CredentialsPath = "/creds.json"; c.Sheets.SpreadsheetID = "sheet" }, ""},
		{"mongo without collection", func(c *Config) { c.MongoDB.URI = "mongodb://x"; c.MongoDB.Collection = "" }, "MONGODB_COLLECTION"},
		{"lookup zero timeout", func(c *Config) { c.Lookup.BaseURL = "http://lookup"; c.Lookup.Timeout = 0 }, "DRUG_LOOKUP_TIMEOUT"},
		{"bad schedule", func(c *Config) { c.Scheduler.SweepSchedule = "every now and then" }, "SESSION_SWEEP_SCHEDULE"},
		{"cron expression", func(c *Config) { c.Scheduler.SweepSchedule = "*/5 * * * *" }, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var c *Config
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for nil config")
	}
}
