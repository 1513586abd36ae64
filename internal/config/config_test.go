package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadWithDefaultsReadsEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "BADGER")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("MEDIA_UPLOAD_TIMEOUT", "5s")
	t.Setenv("MEDIA_MAX_UPLOAD", "1024")
	t.Setenv("LOGGER_LEVEL", "debug")
	t.Setenv("DEBUG_AGENT", "true")
	t.Setenv("LIMITER_RPS", "not-a-number")

	cfg := LoadWithDefaults()

	if cfg.DB.Driver != DriverBadger {
		t.Errorf("want driver %q, got %q", DriverBadger, cfg.DB.Driver)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("want port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Media.UploadTimeout != 5*time.Second {
		t.Errorf("want 5s upload timeout, got %s", cfg.Media.UploadTimeout)
	}
	if cfg.Media.MaxUpload != 1024 {
		t.Errorf("want max upload 1024, got %d", cfg.Media.MaxUpload)
	}
	if cfg.Logger.Level != slog.LevelDebug {
		t.Errorf("want debug level, got %s", cfg.Logger.Level)
	}
	if !cfg.Debug.Agent {
		t.Error("want debug agent enabled")
	}
	if cfg.Limiter.RPS != DefaultConfig().Limiter.RPS {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Limiter.RPS)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogapi.yaml")
	body := "db_driver: postgres\ndb_url: postgres://blog:secret@db:5432/ignored\nhttp_port: 4000\ncors_origin: https://example.com\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_PORT", "5000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DB.Driver != DriverPostgres {
		t.Errorf("want driver from file, got %q", cfg.DB.Driver)
	}
	if cfg.CORS.Origin != "https://example.com" {
		t.Errorf("want origin from file, got %q", cfg.CORS.Origin)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("env should win over file, got port %d", cfg.HTTP.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.DB.Driver = "mongo" }, "DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.DB.Driver = DriverPostgres }, "DB_URL"},
		{"db name with separator", func(c *Config) { c.DB.Name = "../x" }, "DB_NAME"},
		{"unknown media provider", func(c *Config) { c.Media.Provider = "cloudinary" }, "MEDIA_PROVIDER"},
		{"s3 without bucket", func(c *Config) { c.Media.Provider = MediaS3 }, "S3_BUCKET"},
		{"bad namespace", func(c *Config) { c.Media.Namespace = "nope" }, "MEDIA_NAMESPACE"},
		{"zero upload timeout", func(c *Config) { c.Media.UploadTimeout = 0 }, "MEDIA_UPLOAD_TIMEOUT"},
		{"well-known port", func(c *Config) { c.HTTP.Port = 80 }, "HTTP_PORT"},
		{"upload outlasts write deadline", func(c *Config) { c.Media.UploadTimeout = c.HTTP.Timeouts.Write }, "MEDIA_UPLOAD_TIMEOUT"},
		{"short write timeout", func(c *Config) { c.HTTP.Timeouts.Write = 10 * time.Second }, "HTTP_WRITE_TIMEOUT"},
		{"zero json limit", func(c *Config) { c.HTTP.MaxJSON = 0 }, "HTTP_MAX_JSON"},
		{"bad env", func(c *Config) { c.App.Environment = "staging" }, "APP_ENV"},
		{"zero burst", func(c *Config) { c.Limiter.Burst = 0 }, "LIMITER_BURST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("want error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDBLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DBConfig
		want string
	}{
		{"sqlite file", DBConfig{Driver: DriverSQLite, URL: "./data", Name: "blogapi"}, filepath.Join("data", "blogapi.db")},
		{"sqlite memory", DBConfig{Driver: DriverSQLite, URL: ":memory:", Name: "blogapi"}, ":memory:"},
		{"badger dir", DBConfig{Driver: DriverBadger, URL: "/var/lib", Name: "posts"}, "/var/lib/posts"},
		{"badger memory", DBConfig{Driver: DriverBadger, URL: "", Name: "posts"}, ""},
		{"postgres database", DBConfig{Driver: DriverPostgres, URL: "postgres://u:p@db:5432/other?sslmode=disable", Name: "blogapi"}, "postgres://u:p@db:5432/blogapi?sslmode=disable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.cfg.Location()
			if err != nil {
				t.Fatalf("Location failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}
