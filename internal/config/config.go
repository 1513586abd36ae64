package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"

	MediaLocal = "local"
	MediaS3    = "s3"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
	MaxJSON  int64 // bytes accepted in a JSON or urlencoded body
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
	PublicDir   string
}

type DBConfig struct {
	Driver string // sqlite | postgres | badger
	URL    string
	Name   string
}

// Location resolves URL and Name into what the selected driver opens: a file
// for sqlite, a directory for badger, a DSN for postgres.
func (c DBConfig) Location() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		if c.URL == ":memory:" {
			return c.URL, nil
		}
		return filepath.Join(c.URL, c.Name+".db"), nil
	case DriverBadger:
		if c.URL == "" {
			return "", nil
		}
		return filepath.Join(c.URL, c.Name), nil
	case DriverPostgres:
		u, err := url.Parse(c.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DB_URL: %w", err)
		}
		u.Path = "/" + c.Name
		return u.String(), nil
	default:
		return "", fmt.Errorf("unknown DB_DRIVER %q", c.Driver)
	}
}

type MediaConfig struct {
	Provider      string // local | s3
	LocalDir      string
	PublicURL     string
	TempDir       string
	MaxUpload     int64
	UploadTimeout time.Duration
	Optimise      bool
	MaxWidth      int
	Namespace     string
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type CORSConfig struct {
	Origin string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type DebugConfig struct {
	Agent bool
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Media   MediaConfig
	S3      S3Config
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	CORS    CORSConfig
	Limiter RateLimiterConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Debug   DebugConfig
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "blogapi",
			Environment: "prod",
			PublicDir:   "./public",
		},
		DB: DBConfig{
			Driver: DriverSQLite,
			URL:    "./data",
			Name:   "blogapi",
		},
		Media: MediaConfig{
			Provider:      MediaLocal,
			LocalDir:      "./public/uploads",
			PublicURL:     "http://localhost:3000/uploads",
			TempDir:       "./public/temp",
			MaxUpload:     5 << 20,
			UploadTimeout: 30 * time.Second,
			MaxWidth:      1920,
			Namespace:     "570e8400-c29b-45d4-a716-446655440700",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     30 * time.Second, // a full MEDIA_MAX_UPLOAD body on a slow link
				Write:    60 * time.Second, // must outlast MEDIA_UPLOAD_TIMEOUT
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
			MaxJSON: 16 << 10,
		},
		CORS: CORSConfig{
			Origin: "*",
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
	}
}

// LoadWithDefaults reads the environment only.
func LoadWithDefaults() *Config {
	return load(source{})
}

// Load reads the config file at path (any format viper understands) and lets
// the environment override it. Keys in the file are the lowercased variable
// names, e.g. db_driver.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadWithDefaults(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config %q: %w", path, err)
	}
	return load(source{file: v}), nil
}

func load(src source) *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        src.getEnv("APP_NAME", defaults.App.Name),
			Environment: src.getEnv("APP_ENV", defaults.App.Environment),
			PublicDir:   src.getEnv("APP_PUBLIC_DIR", defaults.App.PublicDir),
		},
		DB: DBConfig{
			Driver: strings.ToLower(src.getEnv("DB_DRIVER", defaults.DB.Driver)),
			URL:    src.getEnv("DB_URL", defaults.DB.URL),
			Name:   src.getEnv("DB_NAME", defaults.DB.Name),
		},
		Media: MediaConfig{
			Provider:      strings.ToLower(src.getEnv("MEDIA_PROVIDER", defaults.Media.Provider)),
			LocalDir:      src.getEnv("MEDIA_LOCAL_DIR", defaults.Media.LocalDir),
			PublicURL:     src.getEnv("MEDIA_PUBLIC_URL", defaults.Media.PublicURL),
			TempDir:       src.getEnv("MEDIA_TEMP_DIR", defaults.Media.TempDir),
			MaxUpload:     src.getEnvAsInt64("MEDIA_MAX_UPLOAD", defaults.Media.MaxUpload),
			UploadTimeout: src.getEnvAsDuration("MEDIA_UPLOAD_TIMEOUT", defaults.Media.UploadTimeout),
			Optimise:      src.getEnvAsBool("MEDIA_OPTIMISE", defaults.Media.Optimise),
			MaxWidth:      src.getEnvAsInt("MEDIA_MAX_WIDTH", defaults.Media.MaxWidth),
			Namespace:     src.getEnv("MEDIA_NAMESPACE", defaults.Media.Namespace),
		},
		S3: S3Config{
			Endpoint:  src.getEnv("S3_ENDPOINT", defaults.S3.Endpoint),
			Region:    src.getEnv("S3_REGION", defaults.S3.Region),
			Bucket:    src.getEnv("S3_BUCKET", defaults.S3.Bucket),
			AccessKey: src.getEnv("S3_ACCESS_KEY", defaults.S3.AccessKey),
			SecretKey: src.getEnv("S3_SECRET_KEY", defaults.S3.SecretKey),
		},
		Proxy: ProxyConfig{
			Trusted: src.getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: src.getEnvAsInt("HTTP_PORT", defaults.HTTP.Port), // don't forget to add ':'
			Timeouts: HTTPTimeoutsConfig{
				Read:     src.getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    src.getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     src.getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: src.getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
			MaxJSON: src.getEnvAsInt64("HTTP_MAX_JSON", defaults.HTTP.MaxJSON),
		},
		CORS: CORSConfig{
			Origin: src.getEnv("CORS_ORIGIN", defaults.CORS.Origin),
		},
		Limiter: RateLimiterConfig{
			RPS:   src.getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst: src.getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
		},
		Logger: LoggerConfig{
			Level: src.getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: src.getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    src.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Debug: DebugConfig{
			Agent: src.getEnvAsBool("DEBUG_AGENT", false),
		},
	}
}

// source looks a key up in the environment first, then in the optional file.
type source struct {
	file *viper.Viper
}

func (s source) lookup(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value, true
	}
	if s.file != nil {
		if k := strings.ToLower(key); s.file.IsSet(k) {
			return s.file.GetString(k), true
		}
	}
	return "", false
}

func (s source) getEnv(key, fallback string) string {
	if value, ok := s.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (s source) getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func (s source) getEnvAsInt(key string, fallback int) int {
	valueStr, ok := s.lookup(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func (s source) getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, ok := s.lookup(key)
	if !ok {
		return fallback
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func (s source) getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func (s source) getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := s.lookup(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}

	switch c.DB.Driver {
	case DriverSQLite, DriverBadger:
	case DriverPostgres:
		if !strings.HasPrefix(c.DB.URL, "postgres://") && !strings.HasPrefix(c.DB.URL, "postgresql://") {
			return fmt.Errorf("DB_URL must be a postgres:// URL when DB_DRIVER is postgres")
		}
	default:
		return fmt.Errorf(`DB_DRIVER must be "sqlite", "postgres" or "badger", got %q`, c.DB.Driver)
	}
	if c.DB.Name == "" || strings.ContainsAny(c.DB.Name, `/\`) {
		return fmt.Errorf("DB_NAME must be a plain name, got %q", c.DB.Name)
	}

	switch c.Media.Provider {
	case MediaLocal:
		if c.Media.LocalDir == "" {
			return fmt.Errorf("MEDIA_LOCAL_DIR must not be empty")
		}
	case MediaS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET must not be empty when MEDIA_PROVIDER is s3")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3_REGION must not be empty when MEDIA_PROVIDER is s3")
		}
	default:
		return fmt.Errorf(`MEDIA_PROVIDER must be "local" or "s3", got %q`, c.Media.Provider)
	}
	if _, err := url.Parse(c.Media.PublicURL); err != nil || c.Media.PublicURL == "" {
		return fmt.Errorf("MEDIA_PUBLIC_URL must be a valid URL")
	}
	if c.Media.TempDir == "" {
		return fmt.Errorf("MEDIA_TEMP_DIR must not be empty")
	}
	if c.Media.MaxUpload <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD must be positive, got %d", c.Media.MaxUpload)
	}
	if c.Media.UploadTimeout <= 0 {
		return fmt.Errorf("MEDIA_UPLOAD_TIMEOUT must be positive (e.g., 30s), got %s", c.Media.UploadTimeout)
	}
	if c.Media.MaxWidth <= 0 {
		return fmt.Errorf("MEDIA_MAX_WIDTH must be positive, got %d", c.Media.MaxWidth)
	}
	if _, err := uuid.FromString(c.Media.Namespace); err != nil {
		return fmt.Errorf("MEDIA_NAMESPACE must be a valid UUID")
	}

	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.Media.UploadTimeout >= c.HTTP.Timeouts.Write {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT (%s) must be longer than MEDIA_UPLOAD_TIMEOUT (%s) or failed uploads lose their response", c.HTTP.Timeouts.Write, c.Media.UploadTimeout)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.HTTP.MaxJSON <= 0 {
		return fmt.Errorf("HTTP_MAX_JSON must be positive, got %d", c.HTTP.MaxJSON)
	}
	if c.CORS.Origin == "" {
		return fmt.Errorf("CORS_ORIGIN must not be empty")
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}

	// c.Proxy.Trusted will default to false if not valid
	// c.Logger.Level will default to Info if not valid
	return nil
}
