package config

import (
	"os"
	"testing"
)

// unsetenv clears a variable for the test while keeping t.Setenv's
// automatic restore.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	unsetenv(t, "PORT")
	unsetenv(t, "DB_HOST")
	unsetenv(t, "DB_NAME")
	unsetenv(t, "UPLOAD_DIR")
	unsetenv(t, "BASE_URL")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, want localhost", cfg.DBHost)
	}
	if cfg.DBName != "gobag" {
		t.Errorf("DBName = %q, want gobag", cfg.DBName)
	}
	if cfg.UploadDir != "./uploads" {
		t.Errorf("UploadDir = %q, want ./uploads", cfg.UploadDir)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want http://localhost:8080", cfg.BaseURL)
	}
}

func TestParseRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Parse(); err == nil {
		t.Fatal("Parse succeeded without JWT_SECRET")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "gobag",
		DBPassword: "pw",
		DBName:     "gobag",
	}

	want := "host=db user=gobag password=pw dbname=gobag port=5433 sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
